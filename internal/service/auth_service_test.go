package service

import (
	"testing"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"

	"go-pharmacy-ledger/pkg/jwt"
)

func TestLoginRotatesTokenVersion(t *testing.T) {
	env := newTestEnv(t)
	emp := env.seedEmployee(t, 1)

	first, err := env.auth.Login(&LoginInput{Email: emp.Email, Password: "123456"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, err := env.auth.Login(&LoginInput{Email: emp.Email, Password: "123456"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	firstClaims, err := jwt.ValidateToken(first.Token)
	if err != nil {
		t.Fatalf("validate first token: %v", err)
	}
	secondClaims, err := jwt.ValidateToken(second.Token)
	if err != nil {
		t.Fatalf("validate second token: %v", err)
	}
	if firstClaims.TokenVersion == secondClaims.TokenVersion {
		t.Fatalf("token version did not rotate between logins")
	}

	// Only the latest version survives on the account.
	current, err := env.employeeRepo.FindByID(emp.ID)
	if err != nil {
		t.Fatalf("reload employee: %v", err)
	}
	if current.TokenVersion != secondClaims.TokenVersion {
		t.Fatalf("stored version matches neither token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	emp := env.seedEmployee(t, 1)

	if _, err := env.auth.Login(&LoginInput{Email: emp.Email, Password: "wrong"}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("wrong password: err = %v, want validation", err)
	}
	if _, err := env.auth.Login(&LoginInput{Email: "ghost@pharmacy.test", Password: "123456"}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("unknown email: err = %v, want validation", err)
	}

	inactive := false
	if _, err := env.employees.UpdateEmployee(emp.ID, &UpdateEmployeeInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate employee: %v", err)
	}
	if _, err := env.auth.Login(&LoginInput{Email: emp.Email, Password: "123456"}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("deactivated account: err = %v, want validation", err)
	}
}

func TestChangePasswordInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	emp := env.seedEmployee(t, 1)

	login, err := env.auth.Login(&LoginInput{Email: emp.Email, Password: "123456"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := jwt.ValidateToken(login.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	err = env.auth.ChangePassword(emp.ID, &ChangePasswordInput{
		OldPassword: "123456",
		NewPassword: "hunter22",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}

	current, err := env.employeeRepo.FindByID(emp.ID)
	if err != nil {
		t.Fatalf("reload employee: %v", err)
	}
	if current.TokenVersion == claims.TokenVersion {
		t.Fatalf("old session still valid after password change")
	}
	if !current.CheckPassword("hunter22") {
		t.Fatalf("new password not stored")
	}

	wrong := env.auth.ChangePassword(emp.ID, &ChangePasswordInput{
		OldPassword: "123456",
		NewPassword: "another1",
	})
	if !apperr.IsKind(wrong, apperr.Validation) {
		t.Fatalf("stale old password: err = %v, want validation", wrong)
	}
}

func TestCreateEmployeeGetsRoleDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.seedRolesAndPrivileges(t)

	created, err := env.employees.CreateEmployee(&CreateEmployeeInput{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@pharmacy.test",
		RoleCode:  model.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if len(created.Privileges) == 0 {
		t.Fatalf("new employee has no privileges from role")
	}
	if created.EmployeeNo == 0 {
		t.Fatalf("employee number not assigned")
	}

	// New accounts log in with the temporary password.
	if _, err := env.auth.Login(&LoginInput{Email: "asha@pharmacy.test", Password: temporaryPassword}); err != nil {
		t.Fatalf("login with temporary password: %v", err)
	}

	_, err = env.employees.CreateEmployee(&CreateEmployeeInput{
		FirstName: "Asha",
		Email:     "asha@pharmacy.test",
		RoleCode:  model.RoleAdmin,
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("duplicate email: err = %v, want conflict", err)
	}
}

func TestUpdatePrivilegesRejectsUnknownCodes(t *testing.T) {
	env := newTestEnv(t)
	env.seedRolesAndPrivileges(t)

	created, err := env.employees.CreateEmployee(&CreateEmployeeInput{
		FirstName: "Asha",
		Email:     "asha@pharmacy.test",
		RoleCode:  model.RoleWorker,
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	if _, err := env.employees.UpdatePrivileges(created.ID, []string{"stock:view", "no:such"}); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("unknown code: err = %v, want validation", err)
	}

	updated, err := env.employees.UpdatePrivileges(created.ID, []string{"stock:view", "sale:create"})
	if err != nil {
		t.Fatalf("update privileges: %v", err)
	}
	if len(updated.Privileges) != 2 {
		t.Fatalf("employee has %d privileges, want 2", len(updated.Privileges))
	}
}
