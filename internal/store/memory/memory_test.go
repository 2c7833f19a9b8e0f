package memory

import (
	"testing"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/store/storetest"
)

func TestOTPRepo_Contract(t *testing.T) {
	storetest.RunOTPRepository(t, func(*testing.T) repository.OTPRepository { return NewOTPRepo() })
}

func TestUserRepo_Contract(t *testing.T) {
	storetest.RunUserRepository(t, func(*testing.T) repository.UserRepository { return NewUserRepo() })
}
