package commands

import (
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/crucible/core/internal/crucible/engine"
)

func newInjectConceptCommand() *cobra.Command {
	var (
		id         int64
		technical  string
		plain      string
		confidence float64
		keywords   string
	)
	cmd := &cobra.Command{
		Use:   "inject-concept",
		Short: "Inject a concept glyph on the golden-angle spiral",
		Long:  "Spawns a concept glyph carrying the given technical payload and keyword tags (spec §6).",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			var kw []string
			if strings.TrimSpace(keywords) != "" {
				for _, k := range strings.Split(keywords, ",") {
					if t := strings.TrimSpace(k); t != "" {
						kw = append(kw, t)
					}
				}
			}
			s.eng.InjectConcept(engine.ConceptInput{
				ID:         id,
				Technical:  technical,
				Plain:      plain,
				Confidence: confidence,
				Keywords:   kw,
			})
			if err := s.save(time.Now().Unix()); err != nil {
				return err
			}
			pterm.Success.Printf("injected concept #%d with %d keyword(s)\n", id, len(kw))
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "concept id")
	cmd.Flags().StringVar(&technical, "technical", "", "technical description carried on the concept glyph")
	cmd.Flags().StringVar(&plain, "plain", "", "plain-language description")
	cmd.Flags().Float64Var(&confidence, "confidence", 1.0, "confidence in [0,1], clamped")
	cmd.Flags().StringVar(&keywords, "keywords", "", "comma-separated keyword tags")
	return cmd
}
