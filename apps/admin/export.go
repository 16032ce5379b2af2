package main

import (
	"bytes"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/dashboard"
	"github.com/incubaapp/incuba/core/export"
)

func (cli *commandLine) exportCmd() *cobra.Command {
	var (
		out        string
		mode       string
		sections   []string
		filterType string
		nivel      string
		email      string
		q          export.Query
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ventures workbook (xlsx), optionally mailing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := export.Mode(mode)
			if m != export.ModeSections && m != export.ModeMass {
				return errors.Errorf("mode %q: must be one of: sections, mass", mode)
			}
			secs, err := export.ParseSections(sections)
			if err != nil {
				return err
			}
			if q.FilterType, err = dashboard.ParseFilterType(filterType); err != nil {
				return err
			}
			if q.Nivel, err = dashboard.ParseNivelFilter(nivel); err != nil {
				return err
			}
			var to *mail.Address
			if email != "" {
				if to, err = mail.ParseAddress(email); err != nil {
					return errors.Wrapf(err, "email %q", email)
				}
			}
			q.Filter.Clean()

			var buf bytes.Buffer
			if err := cli.app.Export.Write(cmd.Context(), &buf, m, secs, q); err != nil {
				return err
			}
			if out == "" {
				out = export.FileName(time.Now())
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return errors.Wrap(err, "writing export file")
			}
			fmt.Fprintln(cli.out, out)

			if to == nil {
				return nil
			}
			return cli.mailExport(*to, filepath.Base(out), buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to emprendimientos-<timestamp>.xlsx)")
	cmd.Flags().StringVar(&mode, "mode", string(export.ModeSections), "sections or mass")
	cmd.Flags().StringSliceVar(&sections, "sections", nil, "sections to include; all when empty")
	cmd.Flags().StringVar(&q.Filter.Search, "search", "", "name search")
	cmd.Flags().StringVar(&q.Filter.Category, "category", "", "category")
	cmd.Flags().StringVar(&q.Filter.Stage, "stage", "", "stage")
	cmd.Flags().StringVar(&filterType, "filter-type", "", "todos, beneficiarios or candidatos")
	cmd.Flags().StringVar(&nivel, "nivel", "", "todos, candidatos or a tier name")
	cmd.Flags().StringVar(&email, "email", "", "also send the workbook to this address")
	return cmd
}

func (cli *commandLine) mailExport(to mail.Address, filename string, workbook []byte) error {
	msg := &core.EmailMessage{
		To:      []mail.Address{to},
		Subject: "Exportación de emprendimientos",
		BodyStr: fmt.Sprintf("Adjuntamos %s generado el %s.", filename, time.Now().Format("2006-01-02 15:04")),
	}
	msg.Attach(filename, export.ContentType, workbook)
	if err := msg.Render(cli.app.Conf); err != nil {
		return errors.Wrap(err, "rendering export email")
	}
	if err := cli.app.Mail.SendMessages(msg); err != nil {
		return errors.Wrap(err, "mailing export")
	}
	fmt.Fprintf(cli.out, "sent to %s\n", to.Address)
	return nil
}
