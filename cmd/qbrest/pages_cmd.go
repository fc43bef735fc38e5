package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/gravitational/qbrest/quickbase"
)

// PageCmd groups the code page commands
type PageCmd struct {
	Get    PageGetCmd    `cmd:"true" help:"Download a code page"`
	Put    PagePutCmd    `cmd:"true" help:"Upload a file as a code page"`
	List   PageListCmd   `cmd:"true" help:"List files registered to code pages"`
	Forget PageForgetCmd `cmd:"true" help:"Remove a file from the page registry"`
}

// pageFilePatterns are the files picked by page put when no file is given
var pageFilePatterns = []string{"*.html", "*.js"}

// PageGetCmd downloads a code page
type PageGetCmd struct {
	File    string `arg:"true" optional:"true" help:"Local file to write, - for stdout. Defaults to the file registered for --id"`
	ID      int    `help:"Page id, defaults to the one registered for the file"`
	AppDBID string `name:"app" help:"Application dbid, defaults to app_dbid of the environment"`
}

// Run downloads the page and records its id for the file
func (cmd *PageGetCmd) Run(ctx context.Context, cli *CLI) error {
	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	appDBID, err := s.appDBID(cmd.AppDBID)
	if err != nil {
		return trace.Wrap(err)
	}
	registry := NewPageRegistry(s.env.Storage)
	file := cmd.File
	toStdout := file == "-"

	id := cmd.ID
	if id == 0 && file != "" && !toStdout {
		if id, _, err = registry.Get(file); err != nil {
			return trace.Wrap(err)
		}
	}
	if id == 0 {
		if id, err = promptPageID(file); err != nil {
			return trace.Wrap(err)
		}
	}
	if file == "" {
		found, ok, err := registry.FileFor(ctx, id)
		if err != nil {
			return trace.Wrap(err)
		}
		if file = found; !ok {
			if file, err = promptFileName(id); err != nil {
				return trace.Wrap(err)
			}
		}
	}

	body, err := s.client.GetDBPage(ctx, appDBID, id)
	if err != nil {
		return trace.Wrap(err)
	}

	if toStdout {
		_, err := fmt.Fprintln(cli.out(), body)
		return trace.Wrap(err)
	}
	if err := os.WriteFile(file, []byte(body), 0644); err != nil {
		return trace.ConvertSystemError(err)
	}
	if err := registry.Set(file, id); err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintf(cli.out(), "Downloaded page %d to %s\n", id, file)
	return nil
}

// PagePutCmd uploads a file as a code page
type PagePutCmd struct {
	File    string `arg:"true" optional:"true" help:"Local file to upload, defaults to the newest .html or .js file in the working directory"`
	ID      int    `help:"Page id to replace, defaults to the one registered for the file"`
	Name    string `help:"Name of a new page, defaults to the file name"`
	Type    string `help:"Type of a new page" enum:"xsl,exactform" default:"xsl"`
	Yes     bool   `short:"y" help:"Create a new page without asking"`
	AppDBID string `name:"app" help:"Application dbid, defaults to app_dbid of the environment"`
}

// Run uploads the file and records the page id
func (cmd *PagePutCmd) Run(ctx context.Context, cli *CLI) error {
	file := cmd.File
	if file == "" {
		newest, err := newestPageFile(".")
		if err != nil {
			return trace.Wrap(err)
		}
		file = newest
		fmt.Fprintf(cli.out(), "Uploading %s\n", file)
	}

	body, err := os.ReadFile(file)
	if err != nil {
		return trace.ConvertSystemError(err)
	}

	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	appDBID, err := s.appDBID(cmd.AppDBID)
	if err != nil {
		return trace.Wrap(err)
	}
	registry := NewPageRegistry(s.env.Storage)

	page := quickbase.DBPage{ID: cmd.ID, Body: string(body)}
	if page.ID == 0 {
		if page.ID, _, err = registry.Get(file); err != nil {
			return trace.Wrap(err)
		}
	}
	if page.ID == 0 {
		page.Name = cmd.Name
		if page.Name == "" {
			page.Name = filepath.Base(file)
		}
		page.Type = pageType(cmd.Type)
		if !cmd.Yes {
			if err := confirmNewPage(page.Name, appDBID); err != nil {
				return trace.Wrap(err)
			}
		}
	}

	id, err := s.client.AddReplaceDBPage(ctx, appDBID, page)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := registry.Set(file, id); err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintf(cli.out(), "Uploaded %s to page %d\n", file, id)
	return nil
}

// PageListCmd lists the page registry
type PageListCmd struct{}

// Run prints the registered files
func (cmd *PageListCmd) Run(ctx context.Context, cli *CLI) error {
	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	pages, err := NewPageRegistry(s.env.Storage).List(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	files := maps.Keys(pages)
	slices.Sort(files)

	table := tablewriter.NewWriter(cli.out())
	table.SetHeader([]string{"File", "Page"})
	for _, file := range files {
		table.Append([]string{file, strconv.Itoa(pages[file])})
	}
	table.Render()
	return nil
}

// PageForgetCmd removes a file from the page registry
type PageForgetCmd struct {
	File string `arg:"true" help:"Registered local file"`
}

// Run forgets the file, the page itself is left untouched
func (cmd *PageForgetCmd) Run(cli *CLI) error {
	s, err := cli.open()
	if err != nil {
		return trace.Wrap(err)
	}
	defer s.Close()

	if err := NewPageRegistry(s.env.Storage).Forget(cmd.File); err != nil {
		return trace.Wrap(err)
	}
	fmt.Fprintf(cli.out(), "Forgot %s\n", cmd.File)
	return nil
}

// newestPageFile returns the most recently modified page source in dir
func newestPageFile(dir string) (string, error) {
	var newest string
	var newestTime time.Time
	for _, pattern := range pageFilePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", trace.Wrap(err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return "", trace.ConvertSystemError(err)
			}
			if info.IsDir() {
				continue
			}
			if newest == "" || info.ModTime().After(newestTime) {
				newest, newestTime = match, info.ModTime()
			}
		}
	}
	if newest == "" {
		return "", trace.NotFound("no %s files in %s", strings.Join(pageFilePatterns, " or "), dir)
	}
	return newest, nil
}

func (s *session) appDBID(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if s.env.Quickbase.AppDBID == "" {
		return "", trace.BadParameter("no app_dbid in environment %q, use --app", s.env.Name)
	}
	return s.env.Quickbase.AppDBID, nil
}

func pageType(name string) quickbase.PageType {
	if name == "exactform" {
		return quickbase.PageTypeExactForm
	}
	return quickbase.PageTypeXSL
}

func promptPageID(filename string) (int, error) {
	label := "Page id"
	if filename != "" && filename != "-" {
		label = fmt.Sprintf("Page id for %s", filename)
	}
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if id, err := strconv.Atoi(input); err != nil || id <= 0 {
				return errors.New("page id must be a positive number")
			}
			return nil
		},
	}
	input, err := prompt.Run()
	if err != nil {
		return 0, trace.Wrap(err)
	}
	id, err := strconv.Atoi(input)
	return id, trace.Wrap(err)
}

func promptFileName(id int) (string, error) {
	prompt := promptui.Prompt{
		Label: fmt.Sprintf("File for page %d", id),
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("file name must not be empty")
			}
			return nil
		},
	}
	input, err := prompt.Run()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return strings.TrimSpace(input), nil
}

func confirmNewPage(name, appDBID string) error {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Create page %q in %s", name, appDBID),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return trace.CompareFailed("page %q was not created", name)
		}
		return trace.Wrap(err)
	}
	return nil
}
