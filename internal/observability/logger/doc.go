// Package logger expone un logger Zap global con scoping por contexto.
//
// Init se llama una vez desde main; los handlers y services usan From(ctx),
// que devuelve el logger del request (request_id, method, path) o el global.
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("otp.generate"))
//	log.Info("otp issued", logger.UserID(userID))
//
// Nunca se loguean codigos OTP, hashes, passwords ni el pepper.
package logger
