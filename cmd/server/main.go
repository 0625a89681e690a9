package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Swagger imports
	_ "lounge/backend/docs" // This is important for swag to find the generated docs
)

// @title           Lounge API
// @version         1.0
// @description     Friend graph and direct chat API.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Friend graph and chat backend. Runs the HTTP server when no subcommand is given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate()
	},
}

var (
	reconcileUser  uint
	reconcilePeers []uint
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair the mirrored friend entries of one user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reconcile(cmd.Context(), reconcileUser, reconcilePeers)
	},
}

// init is the initialization function for Cobra which defines flags.
func init() {
	reconcileCmd.Flags().UintVarP(&reconcileUser, "user", "u", 0,
		"ID of the user whose record is treated as authoritative.")
	_ = reconcileCmd.MarkFlagRequired("user")
	reconcileCmd.Flags().UintSliceVarP(&reconcilePeers, "peer", "p", nil,
		"Peers to repair even if the user's record no longer mentions them (after a half-applied reject, withdraw or remove).")

	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd)
}
