// mediactl is the operator's command-line tool for the media durability
// engine: manual backup and restore sweeps, reconciliation, snapshot
// management and sync-log inspection against a running catalog database.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/artfolio/mediakeeper/internal/flagx"
	"github.com/artfolio/mediakeeper/internal/server"
	"github.com/artfolio/mediakeeper/internal/server/config"
	"github.com/artfolio/mediakeeper/internal/server/models"
	"github.com/artfolio/mediakeeper/internal/server/repositories/synclogs"
	"github.com/artfolio/mediakeeper/internal/server/services"
)

const usage = `Usage: mediactl <command> [flags]

Commands:
  list              list catalog entries (-limit, -offset)
  backup            embed every on-disk file into the database
  restore           rewrite every embedded file back to disk
  reconcile         restore only files missing from disk
  snapshot-create   capture the catalog into a new snapshot
  snapshot-list     list available snapshots
  snapshot-restore  replace the catalog from a snapshot (-id, -yes)
  logs              show sync log entries (-op, -status, -file, -limit)
  purge-logs        delete sync log entries past the retention window

Connection flags (-d, -s, -o, ...) and -c/-config work on every command.
`

func main() {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := run(ctx, app, command); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *server.App, command string) error {
	switch command {
	case "list":
		return listAssets(ctx, app)
	case "backup":
		report, err := app.Backup.BackupAll(ctx)
		if err != nil {
			return err
		}
		printSyncReport(report)
	case "restore":
		report, err := app.Reconciler.RestoreAll(ctx)
		if err != nil {
			return err
		}
		printSyncReport(report)
	case "reconcile":
		report, err := app.Reconciler.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("total: %d, missing: %d, restored: %d, failed: %d\n",
			report.Total, report.Missing, report.Restored, report.Failed)
		printErrors(report.Errors)
	case "snapshot-create":
		snapshot, err := app.Backup.CreateSnapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("snapshot %s created with %d items\n", snapshot.ID, snapshot.ItemCount)
	case "snapshot-list":
		return listSnapshots(ctx, app)
	case "snapshot-restore":
		return restoreSnapshot(ctx, app)
	case "logs":
		return showLogs(ctx, app)
	case "purge-logs":
		purged, err := app.SyncLog.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d entries\n", purged)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	return nil
}

func printSyncReport(r *services.SyncReport) {
	fmt.Printf("total: %d, processed: %d, success: %d, failed: %d, skipped: %d\n",
		r.Total, r.Processed, r.Success, r.Failed, r.Skipped)
	printErrors(r.Errors)
}

func printErrors(errs []services.AssetError) {
	for _, e := range errs {
		fmt.Printf("  %s: %s\n", e.FileName, e.Reason)
	}
}

func listAssets(ctx context.Context, app *server.App) error {
	args := flagx.FilterArgs(os.Args[2:], []string{"-limit", "-offset"})
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "max entries")
	offset := fs.Int("offset", 0, "entries to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	assets, total, err := app.MediaService.List(ctx, *limit, *offset)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		fmt.Println("no assets")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tTYPE\tSIZE\tIN DB\tLAST SYNCED")
	for _, a := range assets {
		lastSynced := "never"
		if a.LastSynced != nil {
			lastSynced = a.LastSynced.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
			a.ID, a.FileName, a.FileType, a.FileSize, a.IsStoredInDB, lastSynced)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d assets\n", len(assets), total)
	return nil
}

func listSnapshots(ctx context.Context, app *server.App) error {
	snapshots, err := app.Backup.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Println("no snapshots")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tITEMS")
	for _, s := range snapshots {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.BackupDate.Format("2006-01-02 15:04:05"), s.ItemCount)
	}
	return w.Flush()
}

// restoreSnapshot wipes the live catalog, so it wants explicit consent:
// either the -yes flag or a typed "yes" on an interactive terminal.
func restoreSnapshot(ctx context.Context, app *server.App) error {
	args := flagx.FilterArgs(os.Args[2:], []string{"-id", "-yes"})
	fs := flag.NewFlagSet("snapshot-restore", flag.ContinueOnError)
	id := fs.String("id", "", "snapshot id (latest when empty)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to replace the catalog without -yes on a non-interactive run")
		}
		fmt.Print("this replaces the whole catalog; type 'yes' to continue: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}

	snapshot, err := app.Backup.RestoreSnapshot(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("restored snapshot %s (%d items)\n", snapshot.ID, len(snapshot.Items))
	return nil
}

func showLogs(ctx context.Context, app *server.App) error {
	args := flagx.FilterArgs(os.Args[2:], []string{"-op", "-status", "-file", "-limit"})
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	op := fs.String("op", "", "filter by operation (backup/restore/sync)")
	status := fs.String("status", "", "filter by status (success/failed/skipped)")
	file := fs.String("file", "", "filter by file name substring")
	limit := fs.Int("limit", 50, "max entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := app.SyncLog.Query(ctx, synclogs.Filter{
		Operation:         models.SyncOperation(*op),
		Status:            models.SyncStatus(*status),
		FileNameSubstring: *file,
		Limit:             *limit,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no entries")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tSTATUS\tFILE\tMESSAGE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Operation, e.Status, e.FileName, e.Message)
	}
	return w.Flush()
}
