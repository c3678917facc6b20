package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/degreescope/degreescope/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the degreescope API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		listenAddr, _ := cmd.Flags().GetString("listen")
		user := viper.GetString("server.username")
		pass := viper.GetString("server.password")

		return server.New(db, user, pass).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
