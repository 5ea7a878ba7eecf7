package main

import (
	"fmt"

	"github.com/sandeepkv93/medremind/internal/platform"
	"github.com/spf13/cobra"
)

func init() {
	permissionCmd.AddCommand(permissionStatusCmd)
	permissionCmd.AddCommand(permissionGrantCmd)
	permissionCmd.AddCommand(permissionRevokeCmd)
	permissionCmd.AddCommand(permissionResetCmd)
}

var permissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Inspect or change the notification permission",
	Long: `The notification permission starts undetermined. The terminal UI asks for
it the first time a reminder is added; a denied permission is never asked
again and has to be changed here.

Examples:
  medremind permission status
  medremind permission grant
  medremind permission reset`,
}

var permissionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the notification permission",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()
		status, err := a.permissions.QueryStatus(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status)
		return nil
	},
}

var permissionGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Allow reminder notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setPermission(cmd, platform.PermissionGranted)
	},
}

var permissionRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Deny reminder notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setPermission(cmd, platform.PermissionDenied)
	},
}

var permissionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the decision so the next reminder asks again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return setPermission(cmd, platform.PermissionUndetermined)
	},
}

func setPermission(cmd *cobra.Command, status platform.PermissionStatus) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.permissions.Set(cmd.Context(), status); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "notification permission: %s\n", status)
	return nil
}
