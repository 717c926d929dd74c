// tutorctl manages the knowledge base and inspects chat audit logs.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cupogo/andvari/utils/zlog"

	"github.com/liut/tutoria/pkg/services/stores"
	"github.com/liut/tutoria/pkg/settings"
)

func main() {
	var zlogger *zap.Logger
	if settings.InDevelop() {
		zlogger, _ = zap.NewDevelopment()
	} else {
		zlogger, _ = zap.NewProduction()
	}
	zlog.Set(zlogger.Sugar())

	app := &cli.App{
		Name:  "tutorctl",
		Usage: "manage the tutoring knowledge base",
		Commands: []*cli.Command{
			{
				Name:  "usage",
				Usage: "show environment settings",
				Action: func(c *cli.Context) error {
					return settings.Usage()
				},
			},
			{
				Name:  "db-init",
				Usage: "create schemas and run migrations",
				Action: func(c *cli.Context) error {
					return stores.InitDB()
				},
			},
			{
				Name:      "import",
				Usage:     "import documents from a csv file with head: title,heading,content",
				ArgsUsage: "<file.csv>",
				Action:    importCSV,
			},
			{
				Name:  "list",
				Usage: "list documents",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "heading"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: listDocuments,
			},
			{
				Name:  "export",
				Usage: "export documents",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or jsonl"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file, default stdout"},
				},
				Action: exportDocuments,
			},
			{
				Name:      "embed",
				Usage:     "print the embedding of a text",
				ArgsUsage: "<text>",
				Action:    embedText,
			},
			{
				Name:  "logs",
				Usage: "show audit log of a session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Required: true},
					&cli.IntFlag{Name: "limit", Value: 50},
				},
				Action: showLogs,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCSV(c *cli.Context) error {
	name := c.Args().First()
	if len(name) == 0 {
		return cli.Exit("need a csv file", 1)
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return stores.Sgt().Kb().ImportFromCSV(c.Context, f)
}

func listDocuments(c *cli.Context) error {
	spec := &stores.KbDocumentSpec{
		Title:   c.String("title"),
		Heading: c.String("heading"),
	}
	spec.Limit = c.Int("limit")
	data, total, err := stores.Sgt().Kb().ListDocument(c.Context, spec)
	if err != nil {
		return err
	}
	for _, doc := range data {
		fmt.Printf("%s\t%s\t%s\t%d\n", doc.StringID(), doc.Title, doc.Heading, len(doc.Content))
	}
	fmt.Printf("total: %d\n", total)
	return nil
}

func exportDocuments(c *cli.Context) error {
	out := os.Stdout
	if name := c.String("out"); len(name) > 0 {
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return stores.Sgt().Kb().ExportDocuments(c.Context, stores.ExportArg{
		Spec:   new(stores.KbDocumentSpec),
		Out:    out,
		Format: c.String("format"),
	})
}

func embedText(c *cli.Context) error {
	text := c.Args().First()
	if len(text) == 0 {
		return cli.Exit("need a text", 1)
	}
	vec, err := stores.GetEmbedding(c.Context, text)
	if err != nil {
		return err
	}
	fmt.Printf("len: %d, head: %v\n", len(vec), vec[:8])
	return nil
}

func showLogs(c *cli.Context) error {
	spec := &stores.AuditRecordSpec{
		SessionID: c.String("session"),
	}
	spec.Limit = c.Int("limit")
	spec.Sort = "created"
	data, total, err := stores.Sgt().Audit().ListRecord(c.Context, spec)
	if err != nil {
		return err
	}
	for _, rec := range data {
		fmt.Printf("%s\t%-9s\t%s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Role, rec.Content)
	}
	fmt.Printf("total: %d\n", total)
	return nil
}
