package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/server"
	"github.com/KaramelBytes/tabviz/internal/session"
	"github.com/spf13/cobra"
)

var (
	srvFlags loadFlags
	srvAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP interface (upload, preview, filter, chart, export)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		loadOpt, err := srvFlags.options()
		if err != nil {
			return err
		}
		format, err := chart.ParseFormat(c.ChartFormat)
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		srv := server.New(server.Options{
			Addr:           addr,
			DateColumn:     c.DateColumn,
			CategoryColumn: c.CategoryColumn,
			PreviewRows:    c.PreviewRows,
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			Load:           loadOpt,
			Renderer:       chart.NewRenderer(c.ChartWidth, c.ChartHeight, format),
			ExportFilename: c.ExportFilename,
			ExportBOM:      c.ExportBOM,
			SessionIdle:    time.Duration(c.SessionIdleMin) * time.Minute,
		}, session.NewStore(), logger())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvFlags.bind(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config listen_addr)")
}
