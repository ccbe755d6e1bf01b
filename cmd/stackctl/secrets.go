package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pogolab/stackctl/pkg/secrets"
	"github.com/pogolab/stackctl/pkg/ux"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage stack credentials",
}

var secretsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate credentials and write them into every config file",
	Long: `Generate a random value for every registered credential and
substitute it into each config file location that references it, by
exact placeholder marker. Files whose expected marker is absent (for
example, already templated by hand) are reported, never silently
skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSecretsGenerate(cmd)
	},
}

func runSecretsGenerate(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	configDir, _ := cmd.Flags().GetString("config-dir")

	gen, err := secrets.NewGenerator(secrets.DefaultCredentials(envFile, configDir))
	if err != nil {
		return err
	}

	values, err := gen.Values(nil)
	if err != nil {
		return err
	}

	reports, err := gen.Apply(values)
	for _, r := range reports {
		switch {
		case r.Replacements > 0:
			fmt.Println(ux.OK("%s: %d replacement(s) in %s", r.Credential, r.Replacements, r.File))
		case r.Expected:
			fmt.Println(ux.Warn("%s: marker not found in %s", r.Credential, r.File))
			exitErrors++
		}
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ux.Styles.Muted.Render("Values are recorded in the env file; run 'stackctl check' to verify alignment."))
	return nil
}

func init() {
	secretsCmd.AddCommand(secretsGenerateCmd)
}
