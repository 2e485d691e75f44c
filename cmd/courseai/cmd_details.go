package main

import (
	"github.com/spf13/cobra"

	"github.com/garyellow/courseai-go/internal/render"
)

func newDetailsCommand(root *rootOptions) *cobra.Command {
	var subject, classNum, instructor string

	cmd := &cobra.Command{
		Use:   "details",
		Short: "List semester-by-semester grades for a course",
		Example: `  courseai details --subject cs --class-num 580
  courseai details --subject cs --class-num 580 --instructor yu`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := root.openBackend(cmd, false)
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			resp, err := b.Service().Details(cmd.Context(), subject, classNum, instructor)
			if err != nil {
				return err
			}
			render.New(cmd.OutOrStdout()).Response(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject code, e.g. CS")
	cmd.Flags().StringVar(&classNum, "class-num", "", "Course number, e.g. 580")
	cmd.Flags().StringVar(&instructor, "instructor", "", "Case-insensitive instructor name fragment")
	return cmd
}
