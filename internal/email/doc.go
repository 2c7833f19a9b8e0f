// Package email envía las notificaciones transaccionales del servicio.
//
// Hoy hay una sola: el aviso de cambio de contraseña, disparado por los flujos de
// reset y change una vez que la nueva contraseña quedó persistida. El envío es
// best effort: un error se loguea y no revierte el cambio.
//
// Los códigos OTP nunca salen por acá; su entrega es responsabilidad del cliente
// que los pidió.
package email
