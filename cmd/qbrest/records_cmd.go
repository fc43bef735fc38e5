package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gravitational/trace"
	"github.com/olekukonko/tablewriter"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/gravitational/qbrest/lib"
	"github.com/gravitational/qbrest/lib/stringset"
	"github.com/gravitational/qbrest/quickbase"
)

// VersionCmd prints the version
type VersionCmd struct{}

// Run prints the version
func (cmd *VersionCmd) Run(cli *CLI) error {
	lib.PrintVersion(cli.out(), appName, Version, Gitref)
	return nil
}

// WhoamiCmd shows the user behind the app token
type WhoamiCmd struct {
	// XML prints the raw document instead of a table
	XML bool `help:"Print the raw API_GetUserInfo document"`
}

// Run fetches the user info
func (cmd *WhoamiCmd) Run(ctx context.Context, cli *CLI) error {
	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	if cmd.XML {
		data, err := s.client.GetUserXML(ctx)
		if err != nil {
			return trace.Wrap(err)
		}
		_, err = fmt.Fprintln(cli.out(), data)
		return trace.Wrap(err)
	}

	info, err := s.client.GetUserInfo(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	table := tablewriter.NewWriter(cli.out())
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.Append([]string{"Environment", s.env.Name})
	table.Append([]string{"Realm", s.client.Realm()})
	table.Append([]string{"ID", info.ID})
	for _, row := range []struct {
		name  string
		value *string
	}{
		{"First name", info.FirstName},
		{"Last name", info.LastName},
		{"Login", info.Login},
		{"Email", info.Email},
		{"Screen name", info.ScreenName},
		{"Verified", info.IsVerified},
		{"External auth", info.ExternalAuth},
	} {
		table.Append([]string{row.name, valueOrDash(row.value)})
	}
	table.Render()
	return nil
}

func valueOrDash(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}

// ReportCmd runs a saved report
type ReportCmd struct {
	Table  string `arg:"true" help:"Table id"`
	Report string `arg:"true" help:"Report id"`
	Path   string `help:"Print only the value at this gjson path, e.g. data.#.6.value"`
}

// Run runs the report
func (cmd *ReportCmd) Run(ctx context.Context, cli *CLI) error {
	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	resp, err := s.client.RunReport(ctx, cmd.Table, cmd.Report)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(printResponse(cli.out(), resp, cmd.Path))
}

// QueryCmd queries table records
type QueryCmd struct {
	Table  string   `arg:"true" help:"Table id"`
	Select []string `help:"Comma-separated field ids to return" required:"true"`
	Where  string   `help:"Query string, e.g. {3.EX.'x'}"`
	Sort   []string `help:"Comma-separated sort fields as <field id>[:ASC|DESC]"`
	Path   string   `help:"Print only the value at this gjson path"`
}

// Run queries the table
func (cmd *QueryCmd) Run(ctx context.Context, cli *CLI) error {
	sortBy, err := parseSortFields(cmd.Sort)
	if err != nil {
		return trace.Wrap(err)
	}

	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	opts := quickbase.QueryOptions{Where: cmd.Where}
	if len(sortBy) > 0 {
		opts.SortBy = sortBy
	}
	resp, err := s.client.Query(ctx, cmd.Table, cmd.Select, opts)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(printResponse(cli.out(), resp, cmd.Path))
}

func parseSortFields(specs []string) ([]quickbase.SortField, error) {
	var result []quickbase.SortField
	for _, spec := range specs {
		fieldID, order, _ := strings.Cut(spec, ":")
		order = strings.ToUpper(order)
		if order == "" {
			order = "ASC"
		}
		if fieldID == "" || (order != "ASC" && order != "DESC") {
			return nil, trace.BadParameter("bad sort field %q, expected <field id>[:ASC|DESC]", spec)
		}
		result = append(result, quickbase.SortField{FieldID: fieldID, Order: order})
	}
	return result, nil
}

// UpsertCmd inserts or updates records
type UpsertCmd struct {
	Table      string   `arg:"true" help:"Table id"`
	File       string   `arg:"true" help:"JSON file with an array of records, - for stdin"`
	MergeField string   `help:"Unique field id to merge on"`
	Return     []string `help:"Comma-separated field ids to return for each record"`
}

// Run upserts the records
func (cmd *UpsertCmd) Run(ctx context.Context, cli *CLI) error {
	records, err := cmd.readRecords(cli.in())
	if err != nil {
		return trace.Wrap(err)
	}

	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	resp, err := s.client.Upsert(ctx, cmd.Table, records, quickbase.UpsertOptions{
		FieldsToReturn: cmd.Return,
		MergeFieldID:   cmd.MergeField,
	})
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(printResponse(cli.out(), resp, ""))
}

func (cmd *UpsertCmd) readRecords(stdin io.Reader) ([]quickbase.Record, error) {
	var data []byte
	var err error
	if cmd.File == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(cmd.File)
	}
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}

	var records []quickbase.Record
	if err := lib.FastUnmarshal(data, &records); err != nil {
		return nil, trace.BadParameter("%s does not hold an array of records: %v", cmd.File, err)
	}
	if len(records) == 0 {
		return nil, trace.BadParameter("%s holds no records", cmd.File)
	}
	return records, nil
}

// WarmCmd fetches temporary tokens ahead of use
type WarmCmd struct {
	Tables []string `arg:"true" help:"Table ids"`
}

// Run warms the token cache for every table
func (cmd *WarmCmd) Run(ctx context.Context, cli *CLI) error {
	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	tables := stringset.New(cmd.Tables...).ToSlice()
	group, gctx := errgroup.WithContext(ctx)
	for _, tableID := range tables {
		promise := s.client.Warm(tableID)
		group.Go(func() error {
			_, err := promise.Get(gctx)
			return trace.Wrap(err)
		})
	}
	if err := group.Wait(); err != nil {
		return trace.Wrap(err)
	}

	table := tablewriter.NewWriter(cli.out())
	table.SetHeader([]string{"Table", "Token"})
	for _, tableID := range tables {
		table.Append([]string{tableID, "ready"})
	}
	table.Render()
	return nil
}

// printResponse writes the JSON body, or the value at path when set
func printResponse(w io.Writer, resp *quickbase.Response, path string) error {
	if path == "" {
		if resp.Empty() {
			return nil
		}
		_, err := fmt.Fprintln(w, resp.String())
		return trace.Wrap(err)
	}

	value := resp.Get(path)
	if !value.Exists() {
		return trace.NotFound("nothing at %q in the response", path)
	}
	text := value.Raw
	if value.Type == gjson.String {
		text = value.String()
	}
	_, err := fmt.Fprintln(w, text)
	return trace.Wrap(err)
}
