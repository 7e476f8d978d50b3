package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/codegraph-labs/codegraph/internal/output"
	"github.com/codegraph-labs/codegraph/pkg/classify"
	"github.com/codegraph-labs/codegraph/pkg/graph"
	"github.com/codegraph-labs/codegraph/pkg/query"
)

func queryCmd() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Query the last scanned graph snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Value: ".",
				Usage: "Project root the snapshot was scanned from",
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "summary",
				Usage:  "Entity and relationship counts",
				Action: withQueryService(runQuerySummary),
			},
			{
				Name:   "files",
				Usage:  "List scanned files",
				Action: withQueryService(runQueryFiles),
			},
			{
				Name:  "functions",
				Usage: "List functions in a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "File path as shown by `codegraph query files`"},
				},
				Action: withQueryService(runQueryFunctions),
			},
			{
				Name:  "classes",
				Usage: "List classes in a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "File path as shown by `codegraph query files`"},
				},
				Action: withQueryService(runQueryClasses),
			},
			{
				Name:  "constants",
				Usage: "List constants",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "Restrict to one file"},
				},
				Action: withQueryService(runQueryConstants),
			},
			{
				Name:      "callers",
				Usage:     "Call sites that invoke a function",
				ArgsUsage: "FUNCTION",
				Action:    withQueryService(runQueryCallers),
			},
			{
				Name:      "callees",
				Usage:     "Calls a function makes",
				ArgsUsage: "FUNCTION",
				Action:    withQueryService(runQueryCallees),
			},
			{
				Name:      "paths",
				Usage:     "Transitive call paths between two functions",
				ArgsUsage: "FROM TO",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "depth", Value: 10, Usage: "Maximum call edges per path"},
				},
				Action: withQueryService(runQueryPaths),
			},
			{
				Name:   "unresolved",
				Usage:  "Functions called but never defined in the scanned code",
				Action: withQueryService(runQueryUnresolved),
			},
			{
				Name:   "uncalled",
				Usage:  "Functions with no recorded callers",
				Action: withQueryService(runQueryUncalled),
			},
			{
				Name:  "untested",
				Usage: "Functions with no test coverage edge, or classes with --classes",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "classes", Usage: "List classes with no tested member instead"},
				},
				Action: withQueryService(runQueryUntested),
			},
			{
				Name:   "coverage",
				Usage:  "Heuristic test coverage ratio, overall and per file",
				Action: withQueryService(runQueryCoverage),
			},
			{
				Name:  "repetitive",
				Usage: "Constants repeated by value, or by name with --names",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "names", Usage: "Group by name instead of value"},
					&cli.IntFlag{Name: "min", Value: 2, Usage: "Minimum repetitions to report"},
				},
				Action: withQueryService(runQueryRepetitive),
			},
		},
	}
}

type queryAction func(c *cli.Context, svc *query.Service, formatter *output.Formatter) error

// withQueryService loads the latest snapshot into memory and hands the
// action a query service and formatter.
func withQueryService(action queryAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		root, err := filepath.Abs(c.String("root"))
		if err != nil {
			return fmt.Errorf("invalid root %s: %w", c.String("root"), err)
		}
		store, _, err := openLatestSnapshot(c, cfg, root)
		if err != nil {
			return err
		}
		classifier, err := classify.New(cfg.Classify)
		if err != nil {
			return err
		}

		formatter, err := newFormatter(c, cfg)
		if err != nil {
			return err
		}
		defer formatter.Close()

		return action(c, query.New(store, classifier), formatter)
	}
}

func runQuerySummary(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	sum, err := svc.Summary(c.Context)
	if err != nil {
		return err
	}
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(sum)
	}

	rows := [][]string{
		{"Files", fmt.Sprintf("%d", sum.Files)},
		{"Classes", fmt.Sprintf("%d", sum.Classes)},
		{"Functions", fmt.Sprintf("%d", sum.Functions)},
		{"Constants", fmt.Sprintf("%d", sum.Constants)},
		{"Unresolved references", fmt.Sprintf("%d", sum.References)},
	}
	for _, kind := range []graph.RelKind{graph.RelContains, graph.RelCalls, graph.RelTests, graph.RelImports} {
		rows = append(rows, []string{string(kind) + " edges", fmt.Sprintf("%d", sum.Relationships[kind])})
	}
	return formatter.Output(output.NewTable("Graph summary", []string{"Metric", "Count"}, rows, nil, sum))
}

func runQueryFiles(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	files, err := svc.Files(c.Context)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.File, f.Language, flagString(f)})
	}
	return formatter.Output(output.NewTable("Files", []string{"Path", "Language", "Flags"}, rows, nil, files))
}

func runQueryFunctions(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	fns, err := svc.FunctionsInFile(c.Context, c.String("file"))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(fns))
	for _, fn := range fns {
		rows = append(rows, []string{
			fn.Name,
			fmt.Sprintf("%d-%d", fn.Line, fn.EndLine),
			fmt.Sprintf("%d", fn.Length),
			flagString(fn),
		})
	}
	return formatter.Output(output.NewTable("Functions in "+c.String("file"), []string{"Name", "Lines", "Length", "Flags"}, rows, nil, fns))
}

func runQueryClasses(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	classes, err := svc.ClassesInFile(c.Context, c.String("file"))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(classes))
	for _, cl := range classes {
		rows = append(rows, []string{cl.Name, fmt.Sprintf("%d-%d", cl.Line, cl.EndLine)})
	}
	return formatter.Output(output.NewTable("Classes in "+c.String("file"), []string{"Name", "Lines"}, rows, nil, classes))
}

func runQueryConstants(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	consts, err := svc.Constants(c.Context, c.String("file"))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(consts))
	for _, ct := range consts {
		rows = append(rows, []string{ct.Name, ct.File, ct.Value, ct.ValueType, ct.Scope})
	}
	return formatter.Output(output.NewTable("Constants", []string{"Name", "File", "Value", "Type", "Scope"}, rows, nil, consts))
}

func runQueryCallers(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	name, err := requiredArg(c, 0, "FUNCTION")
	if err != nil {
		return err
	}
	sites, err := svc.Callers(c.Context, name)
	if err != nil {
		return err
	}
	return renderCallSites(formatter, "Callers of "+name, sites)
}

func runQueryCallees(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	name, err := requiredArg(c, 0, "FUNCTION")
	if err != nil {
		return err
	}
	sites, err := svc.Callees(c.Context, name)
	if err != nil {
		return err
	}
	return renderCallSites(formatter, "Callees of "+name, sites)
}

func runQueryPaths(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	from, err := requiredArg(c, 0, "FROM")
	if err != nil {
		return err
	}
	to, err := requiredArg(c, 1, "TO")
	if err != nil {
		return err
	}
	paths, err := svc.CallPaths(c.Context, from, to, c.Int("depth"))
	if err != nil {
		return err
	}
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(paths)
	}
	if len(paths) == 0 {
		formatter.Info("No call path from %s to %s within depth %d", from, to, c.Int("depth"))
		return nil
	}
	rows := make([][]string, 0, len(paths))
	for _, p := range paths {
		rows = append(rows, []string{fmt.Sprintf("%d", len(p)-1), strings.Join(p, " -> ")})
	}
	return formatter.Output(output.NewTable(fmt.Sprintf("Call paths %s -> %s", from, to), []string{"Hops", "Path"}, rows, nil, paths))
}

func runQueryUnresolved(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	refs, err := svc.Unresolved(c.Context)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, []string{r.Name})
	}
	return formatter.Output(output.NewTable("Unresolved references", []string{"Name"}, rows, nil, refs))
}

func runQueryUncalled(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	fns, err := svc.Uncalled(c.Context)
	if err != nil {
		return err
	}
	return renderFunctionList(formatter, "Uncalled functions", fns)
}

func runQueryUntested(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	if c.Bool("classes") {
		classes, err := svc.UntestedClasses(c.Context)
		if err != nil {
			return err
		}
		return renderFunctionList(formatter, "Untested classes", classes)
	}
	fns, err := svc.Untested(c.Context)
	if err != nil {
		return err
	}
	return renderFunctionList(formatter, "Untested functions", fns)
}

func runQueryCoverage(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	cov, err := svc.Coverage(c.Context)
	if err != nil {
		return err
	}
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(cov)
	}

	rows := make([][]string, 0, len(cov.ByFile))
	for _, fc := range cov.ByFile {
		ratio := fmt.Sprintf("%.0f%%", fc.Ratio*100)
		if formatter.Colored() {
			ratio = output.RatioColor(fc.Ratio, ratio)
		}
		rows = append(rows, []string{fc.File, fmt.Sprintf("%d/%d", fc.Tested, fc.Total), ratio})
	}
	total := fmt.Sprintf("%.0f%%", cov.Ratio*100)
	if formatter.Colored() {
		total = output.RatioColor(cov.Ratio, total)
	}
	footer := []string{"Total", fmt.Sprintf("%d/%d", cov.Tested, cov.Total), total}
	if err := formatter.Output(output.NewTable("Test coverage", []string{"File", "Tested", "Ratio"}, rows, footer, cov)); err != nil {
		return err
	}

	formatter.Info("Edges by heuristic: naming_pattern=%d import=%d call=%d",
		cov.ByMethod[graph.MethodNamingPattern], cov.ByMethod[graph.MethodImport], cov.ByMethod[graph.MethodCall])
	return nil
}

func runQueryRepetitive(c *cli.Context, svc *query.Service, formatter *output.Formatter) error {
	var (
		groups []query.ConstantGroup
		err    error
	)
	if c.Bool("names") {
		groups, err = svc.RepeatedNames(c.Context, c.Int("min"))
	} else {
		groups, err = svc.RepeatedValues(c.Context, c.Int("min"))
	}
	if err != nil {
		return err
	}
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(groups)
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		var members []string
		for _, m := range g.Constants {
			members = append(members, fmt.Sprintf("%s (%s)", m.Name, m.File))
		}
		label := g.Value
		if g.Name != "" {
			label = g.Name
		}
		rows = append(rows, []string{label, fmt.Sprintf("%d", g.Count), strings.Join(members, ", ")})
	}
	return formatter.Output(output.NewTable("Repetitive constants", []string{"Value/Name", "Count", "Declarations"}, rows, nil, groups))
}

func renderCallSites(formatter *output.Formatter, title string, sites []query.CallSite) error {
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(sites)
	}
	rows := make([][]string, 0, len(sites))
	for _, s := range sites {
		file := s.Function.File
		if file == "" {
			file = "(unresolved)"
		}
		rows = append(rows, []string{s.Function.Name, file, fmt.Sprintf("%d", s.Line), s.Args})
	}
	return formatter.Output(output.NewTable(title, []string{"Function", "File", "Line", "Args"}, rows, nil, sites))
}

func renderFunctionList(formatter *output.Formatter, title string, fns []graph.Entity) error {
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(fns)
	}
	rows := make([][]string, 0, len(fns))
	for _, fn := range fns {
		rows = append(rows, []string{fn.Name, fn.File, fmt.Sprintf("%d", fn.Line)})
	}
	return formatter.Output(output.NewTable(title, []string{"Name", "File", "Line"}, rows, nil, fns))
}

func flagString(e graph.Entity) string {
	var flags []string
	if e.IsTest {
		flags = append(flags, "test")
	}
	if e.IsExample {
		flags = append(flags, "example")
	}
	if e.IsMain {
		flags = append(flags, "main")
	}
	if e.IsClassMember {
		flags = append(flags, "member")
	}
	return strings.Join(flags, ",")
}

func requiredArg(c *cli.Context, index int, name string) (string, error) {
	if c.Args().Len() <= index {
		return "", fmt.Errorf("missing required argument %s", name)
	}
	return c.Args().Get(index), nil
}
