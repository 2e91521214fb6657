package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pet-assistant/backend/internal/search"
)

type rankedService struct {
	Title string `json:"title"`
	Score int    `json:"score"`
}

type matchOutput struct {
	Query   string             `json:"query"`
	Result  search.MatchResult `json:"result"`
	Tokens  []string           `json:"tokens,omitempty"`
	Ranking []rankedService    `json:"ranking,omitempty"`
}

func newMatchCmd(a *app) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "match <query...>",
		Short: "Match a query against the catalog without calling the LLM",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.loader.Get(cmd.Context())
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			out := matchOutput{Query: query, Result: catalog.Match(query)}
			if explain {
				out.Tokens = search.Normalize(query).Sorted()
				for _, hit := range catalog.Rank(query, 0) {
					out.Ranking = append(out.Ranking, rankedService{Title: hit.Service.Title, Score: hit.Score})
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Include query tokens and the full ranking")
	return cmd
}
