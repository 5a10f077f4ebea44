package main

import (
	"flag"
	"fmt"
	"os"

	"go-pharmacy-ledger/internal/config"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/pkg/database"
)

// reset-password sets a new password for an employee by email, for when an
// admin is locked out and the API cannot help.
func main() {
	email := flag.String("email", "", "employee email")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: reset-password -email <email> -password <new password>")
		os.Exit(2)
	}
	if len(*password) < 6 {
		fmt.Fprintln(os.Stderr, "password must be at least 6 characters")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.PostgresDSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close(db)

	employeeRepo := repository.NewEmployeeRepo(db)
	emp, err := employeeRepo.FindByEmail(*email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "employee %q not found\n", *email)
		os.Exit(1)
	}

	if err := emp.SetPassword(*password); err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}
	if err := employeeRepo.UpdatePassword(emp.ID, emp.Password); err != nil {
		fmt.Fprintf(os.Stderr, "update password: %v\n", err)
		os.Exit(1)
	}
	// Invalidate any live session.
	if err := employeeRepo.UpdateTokenVersion(emp.ID, ""); err != nil {
		fmt.Fprintf(os.Stderr, "reset session: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("password updated for %s\n", *email)
}
