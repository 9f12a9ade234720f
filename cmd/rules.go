package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reviewgate/internal/config"
	"reviewgate/internal/lang"
	"reviewgate/internal/model"
	"reviewgate/internal/rules"
)

type rulesFlags struct {
	langs      listFlag
	source     string
	asJSON     bool
	configFile string
	rulesDir   string
}

type ruleListing struct {
	ID          string         `json:"id"`
	Group       string         `json:"group"`
	Source      string         `json:"source"`
	Severity    model.Severity `json:"severity"`
	Confidence  int            `json:"confidence"`
	Languages   []string       `json:"languages"`
	Frameworks  []string       `json:"frameworks,omitempty"`
	Paths       []string       `json:"paths,omitempty"`
	Description string         `json:"description"`
}

func newRulesCmd() *cobra.Command {
	var flags rulesFlags
	cmd := &cobra.Command{
		Use:   "rules [root]",
		Short: "List the rules a scan of root would run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runRules(cmd, root, &flags)
		},
	}
	fl := cmd.Flags()
	fl.Var(&flags.langs, "lang", "Only list rules for these languages")
	fl.StringVar(&flags.source, "source", "", "Source filter: builtin|custom")
	fl.BoolVar(&flags.asJSON, "json", false, "Print rules as JSON")
	fl.StringVar(&flags.configFile, "config", "", "Config file (default: first manifest found under root)")
	fl.StringVar(&flags.rulesDir, "rules-dir", "", "Custom rules directory (default <root>/"+rules.DefaultCustomDir+")")
	return cmd
}

func runRules(cmd *cobra.Command, root string, flags *rulesFlags) error {
	langs, err := lang.ParseList(flags.langs.Values())
	if err != nil {
		return setupError("%w", err)
	}
	source := strings.ToLower(strings.TrimSpace(flags.source))
	if source != "" && source != string(rules.SourceBuiltin) && source != string(rules.SourceCustom) {
		return setupError("--source must be builtin or custom")
	}

	cfg, err := loadConfig(cmd.Context(), root, flags.configFile, config.NewResolver(nil))
	if err != nil {
		return setupError("%w", err)
	}
	dir := flags.rulesDir
	if dir == "" {
		dir = filepath.Join(root, rules.DefaultCustomDir)
	}
	catalog, err := rules.Build(cfg, dir)
	if err != nil {
		return setupError("load rules: %w", err)
	}

	listed := make([]ruleListing, 0, catalog.Len())
	for _, r := range catalog.Rules() {
		if source != "" && string(r.Source) != source {
			continue
		}
		if len(langs) > 0 && !anyLanguage(r.Scope.Languages, langs) {
			continue
		}
		listed = append(listed, listing(r))
	}

	out := cmd.OutOrStdout()
	if flags.asJSON {
		b, err := json.MarshalIndent(listed, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal rules: %w", err)
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	if len(listed) == 0 {
		_, err := fmt.Fprintln(out, "no rules found")
		return err
	}
	for _, r := range listed {
		fmt.Fprintf(out, "%-28s %-8s %3d%%  %-8s %-7s %s\n",
			r.ID, r.Severity, r.Confidence, r.Group, r.Source, strings.Join(r.Languages, ","))
	}
	return nil
}

func listing(r rules.Rule) ruleListing {
	langs := make([]string, 0, len(r.Scope.Languages))
	for _, l := range r.Scope.Languages {
		langs = append(langs, string(l))
	}
	return ruleListing{
		ID:          r.ID,
		Group:       string(r.Group),
		Source:      string(r.Source),
		Severity:    r.Severity,
		Confidence:  r.Confidence,
		Languages:   langs,
		Frameworks:  r.Scope.Frameworks,
		Paths:       r.Scope.Paths,
		Description: r.Description,
	}
}

func anyLanguage(have, want []lang.Language) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
