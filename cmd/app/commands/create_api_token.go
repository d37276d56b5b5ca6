package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	apitokenDomain "github.com/allisson/envstore/internal/apitoken/domain"
	apitokenUsecase "github.com/allisson/envstore/internal/apitoken/usecase"
	userUsecase "github.com/allisson/envstore/internal/user/usecase"
)

// RunCreateAPIToken mints an API token for an existing user, addressed by
// email. The secret value is printed exactly once and never stored hashed, so
// this is the only chance to capture it.
//
// Requirements: database must be migrated and accessible.
func RunCreateAPIToken(
	ctx context.Context,
	userUseCase userUsecase.UseCase,
	apiTokenUseCase apitokenUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	name string,
	format string,
) error {
	logger.Info("creating api token", slog.String("email", email), slog.String("name", name))

	user, err := userUseCase.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	output, err := apiTokenUseCase.CreateAPIToken(ctx, user.ID, apitokenUsecase.CreateAPITokenInput{
		Name: name,
	})
	if err != nil {
		return fmt.Errorf("failed to create api token: %w", err)
	}

	if format == "json" {
		outputAPITokenJSON(output, writer)
	} else {
		outputAPITokenText(output, writer)
	}

	logger.Info("api token created successfully", slog.String("token_id", output.ID.String()))

	return nil
}

// outputAPITokenText outputs the result in human-readable text format.
func outputAPITokenText(output *apitokenDomain.CreateAPITokenOutput, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nAPI token created successfully!")
	_, _ = fmt.Fprintf(writer, "Token ID: %s\n", output.ID.String())
	_, _ = fmt.Fprintf(writer, "Name: %s\n", output.Name)
	_, _ = fmt.Fprintf(writer, "Token: %s\n", output.Token)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The token is shown only once. Store it securely.")
}

// outputAPITokenJSON outputs the result in JSON format for machine consumption.
func outputAPITokenJSON(output *apitokenDomain.CreateAPITokenOutput, writer io.Writer) {
	result := map[string]string{
		"token_id":  output.ID.String(),
		"name":      output.Name,
		"api_token": output.Token,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
