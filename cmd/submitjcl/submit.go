package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ruffel/submitjcl"
	"github.com/spf13/cobra"
)

func newJCLCmd(opts *options) *cobra.Command {
	var file, text string

	cmd := &cobra.Command{
		Use:   "jcl",
		Short: "Submit inline JCL",
		Example: `  submitjcl jcl --connection cw01 --credentials deploy --file job.jcl
  submitjcl jcl --connection cw01 --credentials deploy --text "//JOB1 JOB ..."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read JCL file: %w", err)
				}

				text = string(data)
			}

			return runSubmit(cmd, opts, submitjcl.InlineJCL, text)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File holding the JCL")
	cmd.Flags().StringVar(&text, "text", "", "JCL text")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	cmd.MarkFlagsOneRequired("file", "text")

	return cmd
}

func newMembersCmd(opts *options) *cobra.Command {
	var (
		members []string
		file    string
	)

	cmd := &cobra.Command{
		Use:     "members",
		Short:   "Submit JCL members by dataset name",
		Example: `  submitjcl members --connection cw01 --credentials deploy --member A.B.MYJCL --member 'MYJCL(JCLMEM3)'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := memberText(members, file)
			if err != nil {
				return err
			}

			return runSubmit(cmd, opts, submitjcl.MemberList, text)
		},
	}

	cmd.Flags().StringArrayVarP(&members, "member", "m", nil, "DSN or DSN(MEMBER) to submit (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File listing one DSN or DSN(MEMBER) per line")
	cmd.MarkFlagsOneRequired("member", "file")

	return cmd
}

// memberText merges --member values and the list file into one newline separated list.
func memberText(members []string, file string) (string, error) {
	lines := append([]string(nil), members...)

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read member list: %w", err)
		}

		lines = append(lines, string(data))
	}

	if len(lines) == 0 {
		return "", errors.New("no JCL members given")
	}

	return strings.Join(lines, "\n"), nil
}

func runSubmit(cmd *cobra.Command, opts *options, kind submitjcl.PayloadKind, text string) error {
	req, err := submitjcl.NewRequest(opts.connection, opts.credentials, opts.maxcc, kind, text)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	s, err := openSession(ctx, opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	step := &submitjcl.Step{
		Request:     req,
		Connections: s.directory,
		Credentials: s.directory,
		CLI:         s.directory,
		Gate:        s.settings.Gate(),
	}

	build := submitjcl.Build{Project: opts.project, Env: opts.env}

	if err := step.Perform(ctx, build, s.workspace, s.agent, cmd.OutOrStdout()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), checkStyle.Render("✅ JCL submitted"))

	return nil
}
