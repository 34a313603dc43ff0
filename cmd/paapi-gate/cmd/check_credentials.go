package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// Credential test request: a single known item with only its title.
const (
	credentialTestASIN     = "B08N5KWB9H"
	credentialTestResource = "ItemInfo.Title"
)

var checkCredentialsCmd = &cobra.Command{
	Use:   "check-credentials",
	Short: "Send a test request with the stored credentials",
	Long: `Send a GetItems request for ` + credentialTestASIN + ` (` + credentialTestResource + `) using the
configured access key, secret key, partner tag and marketplace.

Exits non-zero and prints the PAAPI error when the request is rejected.`,
	RunE: runCheckCredentials,
}

func init() {
	rootCmd.AddCommand(checkCredentialsCmd)
}

func runCheckCredentials(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	env := a.invocations.Invoke(ctx, a.creds, credentialTestParameters())
	if !env.Success {
		return errors.New("credential check failed: " + env.ErrorMessage)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "credentials OK (marketplace %s, partner tag %s, client %s)\n",
		a.creds.Marketplace, a.creds.PartnerTag, a.clientMode)
	return nil
}

func credentialTestParameters() paapi.Parameters {
	return paapi.Parameters{
		Operation: paapi.OperationGetItems,
		ItemIDs:   credentialTestASIN,
		Resources: []string{credentialTestResource},
	}
}
