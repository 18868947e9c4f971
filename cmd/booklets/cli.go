package main

import (
    "encoding/json"
    "errors"
    "flag"
    "fmt"
    "io"
    "strconv"

    "github.com/local/booklets/internal/compose"
    "github.com/local/booklets/internal/config"
    "github.com/local/booklets/internal/imposition"
    "github.com/local/booklets/internal/orchestrator"
)

const usage = `usage:
  booklets [impose] [-o out.pdf] [-f A3|A4|A5|Letter|Legal|Tabloid] [-b N] [-l] input[.pdf] booklet_size
  booklets plan [-b N] [-l] [-json] page_count booklet_size
  booklets serve
`

var errUsage = errors.New("usage")

// parseInterleaved parses flags that may appear before, between or after the
// positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
    var pos []string
    for {
        if err := fs.Parse(args); err != nil { return nil, err }
        args = fs.Args()
        if len(args) == 0 { return pos, nil }
        pos = append(pos, args[0])
        args = args[1:]
    }
}

func parseImpose(args []string, d config.ImposeConfig, stderr io.Writer) (orchestrator.Request, error) {
    fs := flag.NewFlagSet("impose", flag.ContinueOnError)
    fs.SetOutput(stderr)
    out := fs.String("o", "", "output file (default <input>_output.pdf)")
    format := fs.String("f", d.Format, "output paper format")
    blank := fs.Int("b", d.AddBlank, "blank pages added at the front and back")
    long := fs.Bool("l", d.LongEdge, "long-edge duplex: turn back sides 180°")
    pos, err := parseInterleaved(fs, args)
    if err != nil { return orchestrator.Request{}, errUsage }
    if len(pos) != 2 {
        fmt.Fprintf(stderr, "impose: want input and booklet_size, got %d arguments\n", len(pos))
        return orchestrator.Request{}, errUsage
    }
    size, err := strconv.Atoi(pos[1])
    if err != nil {
        fmt.Fprintf(stderr, "impose: booklet_size %q is not a number\n", pos[1])
        return orchestrator.Request{}, errUsage
    }
    return orchestrator.Request{
        Source:      compose.NormalizeInput(pos[0]),
        Output:      *out,
        BookletSize: size,
        AddBlank:    *blank,
        Format:      *format,
        LongEdge:    *long,
    }, nil
}

type planArgs struct {
    opts imposition.Options
    json bool
}

func parsePlan(args []string, d config.ImposeConfig, stderr io.Writer) (planArgs, error) {
    fs := flag.NewFlagSet("plan", flag.ContinueOnError)
    fs.SetOutput(stderr)
    blank := fs.Int("b", d.AddBlank, "blank pages added at the front and back")
    long := fs.Bool("l", d.LongEdge, "long-edge duplex")
    asJSON := fs.Bool("json", false, "print JSON")
    pos, err := parseInterleaved(fs, args)
    if err != nil { return planArgs{}, errUsage }
    if len(pos) != 2 {
        fmt.Fprintf(stderr, "plan: want page_count and booklet_size, got %d arguments\n", len(pos))
        return planArgs{}, errUsage
    }
    pages, err1 := strconv.Atoi(pos[0])
    size, err2 := strconv.Atoi(pos[1])
    if err1 != nil || err2 != nil {
        fmt.Fprintln(stderr, "plan: page_count and booklet_size must be numbers")
        return planArgs{}, errUsage
    }
    return planArgs{
        opts: imposition.Options{PageCount: pages, BookletSize: size, AddBlank: *blank, LongEdge: *long},
        json: *asJSON,
    }, nil
}

// printPlan writes the plan for p to w, one sheet side per line or as JSON.
func printPlan(w io.Writer, p planArgs) error {
    if p.json {
        sides, err := imposition.Plan(p.opts)
        if err != nil { return err }
        layout, _ := imposition.Describe(p.opts)
        enc := json.NewEncoder(w)
        enc.SetIndent("", "  ")
        return enc.Encode(map[string]any{"layout": layout, "sides": sides})
    }
    layout, err := imposition.Describe(p.opts)
    if err != nil { return err }
    fmt.Fprintf(w, "%d pages, %d booklets, %d sheets, %d sides, %d blanks\n",
        p.opts.PageCount, layout.Booklets, layout.Sheets, layout.Sides, layout.Blanks)
    return imposition.Walk(p.opts, func(s imposition.SheetSide) error {
        rot := ""
        if s.Rotate { rot = "  rotate" }
        _, err := fmt.Fprintf(w, "%4d  booklet %-3d %6s | %-6s%s\n", s.Index, s.Booklet, s.Left, s.Right, rot)
        return err
    })
}
