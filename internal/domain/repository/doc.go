// Package repository define los contratos de persistencia del dominio de credenciales:
// entradas OTP y registros de usuario.
//
// Las implementaciones viven en internal/store/{memory,fs,pg}. Los services solo
// dependen de estas interfaces, lo que permite testearlos con el backend en memoria.
package repository
