package main

import (
	"log"
	"os"

	"github.com/dtnitsch/llm-feed-filter/internal/filter"
	"github.com/dtnitsch/llm-feed-filter/internal/prompt"
	"github.com/dtnitsch/llm-feed-filter/internal/watch"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "llm-feed-filter",
		Usage: "Hide feed cards whose titles match your rules, judged by an LLM",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "feedfilter.yaml", Usage: "YAML config file (rules, model, apiUrl, apiKey, apiFormat, selectors)"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with FEEDFILTER_* overrides"},
			&cli.StringFlag{Name: "rules", Usage: "override the rules text"},
			&cli.StringFlag{Name: "model", Usage: "override the model name"},
			&cli.StringFlag{Name: "api-url", Usage: "override the API endpoint URL"},
			&cli.StringFlag{Name: "api-format", Usage: "override the API format: ollama or openai"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug details"},
		},
		Commands: []*cli.Command{
			{
				Name:  "filter",
				Usage: "Filter the cards of a page once and write the result",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Usage: "HTML file to filter"},
					&cli.StringFlag{Name: "url", Usage: "URL of the page to fetch and filter"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "filtered.html", Usage: "where to write the filtered HTML"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "summary format: json or yaml"},
				},
				Action: filter.FilterAction,
			},
			{
				Name:  "watch",
				Usage: "Keep filtering a page while fragments are appended from a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Required: true, Usage: "HTML file to host"},
					&cli.StringFlag{Name: "feed-dir", Required: true, Usage: "directory of *.html fragments to append as they appear"},
					&cli.StringFlag{Name: "append-to", Usage: "selector of the node fragments are appended to (default: first known container)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "filtered.html", Usage: "where to write the filtered HTML on exit"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "summary format: json or yaml"},
				},
				Action: watch.WatchAction,
			},
			{
				Name:  "prompt",
				Usage: "Print the request body that would be sent for a title",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "card title"},
					&cli.BoolFlag{Name: "raw", Usage: "print the exact bytes instead of indented JSON"},
				},
				Action: prompt.PromptAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
