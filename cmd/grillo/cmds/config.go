package cmds

import (
	"fmt"
	"os"

	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := settings.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a config file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.ConfigFileUsed()
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no config file found")
			}
			doc, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "could not read %s", path)
			}
			if err := settings.ValidateDocument(doc); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settings.FromViper(viper.GetViper()).Clone()
			for _, key := range []*string{&s.Local.APIKey, &s.OpenAI.APIKey, &s.Anthropic.APIKey, &s.Gemini.APIKey} {
				if *key != "" {
					*key = "********"
				}
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(s); err != nil {
				return err
			}
			return enc.Close()
		},
	})

	return cmd
}
