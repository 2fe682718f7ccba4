package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .bosscss.yaml config file",
	Long:  `Create a .bosscss.yaml configuration file in the current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(".bosscss.yaml"); err == nil && !force {
			return fmt.Errorf(".bosscss.yaml already exists (use --force to overwrite)")
		}

		if err := os.WriteFile(".bosscss.yaml", []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Created .bosscss.yaml")
		return nil
	},
}

const defaultConfig = `# bosscss configuration

root: .
content:
  - "src/**/*.{js,jsx,ts,tsx,html}"
ignore: []
output: dist/boss.css
out-dir: ""              # compiled sources destination, empty disables compile output

prefix: ""
unit: px
strategy: inline-first   # inline-first | classname-first
classname-strategy: ""   # "" | hash | shortest | sequential
criticality: 2
concurrency: 4
tokens: ""               # tokens.toml | tokens.yaml
runtime-module: boss-css

compile:
  marker: $$
  spread: false
  prepared: true

# Named widths used by mobile:, tablet:, ... ([min, max], 0 = open)
breakpoints:
  mobile: [375, 639]
  tablet: [640, 1023]

# Report settings
format: issues           # issues | summary | full | json
strict: false
print-lines: true
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
