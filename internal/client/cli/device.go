package cli

import (
	"github.com/dalemusser/clubreviews/internal/client/deviceid"
	"github.com/spf13/cobra"
)

func newDeviceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect or reset this device's local identity",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "id",
		Short: "Print the device id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			id, ok := s.Device.Resolved()
			if !ok {
				return NewExitError(ExitCommandError, "device id unavailable")
			}
			p := opts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(map[string]string{"device_id": id})
			}
			p.line("%s", id)
			return nil
		},
	})

	var keepReceipts bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the device id and local receipts",
		Long: `Forget the device id so the next command generates a new one.
Ledger entries recorded under the old id stay on the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Store.DeleteMeta(ctx, deviceid.MetaKey); err != nil {
				return WrapExitError(ExitCommandError, "reset device id", err)
			}
			cleared := 0
			if !keepReceipts {
				all, err := s.Store.All(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "read receipts", err)
				}
				for orgID := range all {
					if err := s.Store.Delete(ctx, orgID); err != nil {
						return WrapExitError(ExitCommandError, "clear receipts", err)
					}
					cleared++
				}
			}
			p := opts.printer(cmd.OutOrStdout())
			if p.json() {
				return p.writeJSON(map[string]any{"reset": true, "receipts_cleared": cleared})
			}
			p.line("Device id reset. %d receipts cleared.", cleared)
			return nil
		},
	}
	reset.Flags().BoolVar(&keepReceipts, "keep-receipts", false, "keep local review receipts")
	cmd.AddCommand(reset)
	return cmd
}
