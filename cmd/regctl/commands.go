package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"regdesk/internal/backend"
	"regdesk/internal/platform/config"
	"regdesk/internal/platform/logger"
	"regdesk/internal/subject/form"
	"regdesk/internal/subject/i18n"
	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/mapping"
	"regdesk/internal/subject/validation"
	"regdesk/pkg/domain"
	"regdesk/pkg/requestcontext"
)

// errInvalid is returned after the failures have been printed.
var errInvalid = errors.New("form has validation errors")

type options struct {
	category   string
	image      string
	lang       string
	backendURL string
	token      string
	logLevel   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "regctl",
		Short:         "Validate, build and submit missing-person registration forms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.category, "category", "c", "man", "form category: man, woman, child or disabled")
	pf.StringVar(&opts.image, "image", "", "photo to attach (JPEG or PNG)")
	pf.StringVar(&opts.lang, "lang", "en", "language for validation messages")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	submit := &cobra.Command{
		Use:   "submit FORM.yaml",
		Short: "Validate the form and register it with the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, opts, args[0])
		},
	}
	submit.Flags().StringVar(&opts.backendURL, "backend-url", "", "registry API base URL (default from REGDESK_BACKEND_URL)")
	submit.Flags().StringVar(&opts.token, "token", "", "registry bearer token (default from REGDESK_BACKEND_TOKEN)")

	root.AddCommand(
		&cobra.Command{
			Use:   "validate FORM.yaml",
			Short: "Check every wizard section of a form",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runValidate(cmd, opts, args[0])
			},
		},
		&cobra.Command{
			Use:   "build FORM.yaml",
			Short: "Print the payload fields a form maps to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBuild(cmd, opts, args[0])
			},
		},
		submit,
	)
	return root
}

// prepared is a loaded form with its photo.
type prepared struct {
	form *form.Form
	img  *imaging.Image
	tr   *i18n.Localizer
}

func prepare(ctx context.Context, opts *options, path string) (*prepared, error) {
	category, err := domain.ParseCategory(opts.category)
	if err != nil {
		return nil, err
	}
	record, err := loadRecord(path)
	if err != nil {
		return nil, err
	}
	p := &prepared{form: form.FromRecord(ctx, category, record)}

	if opts.image != "" {
		data, err := os.ReadFile(opts.image)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		p.img, err = imaging.Resolve(ctx, &imaging.Upload{Filename: filepath.Base(opts.image), Data: data}, "")
		if err != nil {
			return nil, err
		}
	}

	bundle := i18n.NewBundle("en")
	p.tr = bundle.Localizer(bundle.Match(opts.lang))
	return p, nil
}

// check prints every failing section and returns errInvalid if any failed.
func (p *prepared) check(ctx context.Context, out io.Writer) error {
	failures := validation.New().ValidateAll(ctx, p.form, p.img, p.tr)
	if len(failures) == 0 {
		return nil
	}
	sections := make([]int, 0, len(failures))
	for section := range failures {
		sections = append(sections, section)
	}
	sort.Ints(sections)
	for _, section := range sections {
		for _, msg := range failures[section] {
			fmt.Fprintf(out, "section %d: %s\n", section, msg)
		}
	}
	return errInvalid
}

func runValidate(cmd *cobra.Command, opts *options, path string) error {
	ctx := cliContext(cmd)
	p, err := prepare(ctx, opts, path)
	if err != nil {
		return err
	}
	if err := p.check(ctx, cmd.OutOrStdout()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s form is valid\n", p.form.Category())
	return nil
}

// payload is the printable shape of a submission.
type payload struct {
	Category string            `json:"category"`
	Fields   map[string]string `json:"fields"`
	BlobKey  string            `json:"blob_key"`
	Blob     map[string]string `json:"blob"`
	File     string            `json:"file,omitempty"`
}

func runBuild(cmd *cobra.Command, opts *options, path string) error {
	ctx := cliContext(cmd)
	p, err := prepare(ctx, opts, path)
	if err != nil {
		return err
	}
	sub, err := mapping.Build(ctx, p.form, p.img)
	if err != nil {
		return err
	}
	out := payload{
		Category: sub.Category.String(),
		Fields:   make(map[string]string, len(sub.Fields)),
		BlobKey:  sub.BlobKey,
		Blob:     sub.Blob,
	}
	for _, f := range sub.Fields {
		out.Fields[f.Name] = f.Value
	}
	if sub.Image != nil {
		out.File = sub.Image.Filename
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func runSubmit(cmd *cobra.Command, opts *options, path string) error {
	ctx := cliContext(cmd)
	p, err := prepare(ctx, opts, path)
	if err != nil {
		return err
	}
	if err := p.check(ctx, cmd.OutOrStdout()); err != nil {
		return err
	}
	sub, err := mapping.Build(ctx, p.form, p.img)
	if err != nil {
		return err
	}

	cfg := config.FromEnv().Backend
	if opts.backendURL != "" {
		cfg.BaseURL = opts.backendURL
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}
	client := backend.NewFromConfig(cfg, backend.WithLogger(logger.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel, "text")))
	res, err := client.Register(ctx, sub)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

func cliContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return requestcontext.WithTime(ctx, time.Now())
}

// loadRecord reads a YAML form. Scalars other than booleans are kept as
// text so phone numbers and ids keep their leading zeros.
func loadRecord(path string) (form.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	if len(doc.Content) == 0 {
		return form.Record{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse form: %s must be a mapping", path)
	}
	return form.Record(mappingValue(root)), nil
}

func mappingValue(n *yaml.Node) map[string]any {
	out := make(map[string]any, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = nodeValue(n.Content[i+1])
	}
	return out
}

func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.MappingNode:
		return mappingValue(n)
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			items[i] = nodeValue(c)
		}
		return items
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	}
	if n.Tag == "!!bool" {
		if b, err := strconv.ParseBool(n.Value); err == nil {
			return b
		}
	}
	if n.Tag == "!!null" {
		return nil
	}
	return n.Value
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
