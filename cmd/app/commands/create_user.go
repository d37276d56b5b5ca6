package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	userDomain "github.com/allisson/envstore/internal/user/domain"
	userUsecase "github.com/allisson/envstore/internal/user/usecase"
)

// RunCreateUser creates a password account from the command line. Outputs the
// account id and email in either text or JSON format.
//
// Requirements: database must be migrated and accessible.
func RunCreateUser(
	ctx context.Context,
	userUseCase userUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	fullName string,
	password string,
	format string,
) error {
	logger.Info("creating new user", slog.String("email", email))

	user, err := userUseCase.RegisterUser(ctx, userUsecase.RegisterUserInput{
		Email:    email,
		FullName: fullName,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if format == "json" {
		outputUserJSON(user, writer)
	} else {
		outputUserText(user, writer)
	}

	logger.Info("user created successfully", slog.String("user_id", user.ID.String()))

	return nil
}

// outputUserText outputs the result in human-readable text format.
func outputUserText(user *userDomain.User, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nUser created successfully!")
	_, _ = fmt.Fprintf(writer, "User ID: %s\n", user.ID.String())
	_, _ = fmt.Fprintf(writer, "Email: %s\n", user.Email)
	_, _ = fmt.Fprintf(writer, "Full name: %s\n", user.FullName)
}

// outputUserJSON outputs the result in JSON format for machine consumption.
func outputUserJSON(user *userDomain.User, writer io.Writer) {
	result := map[string]string{
		"user_id":   user.ID.String(),
		"email":     user.Email,
		"full_name": user.FullName,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
