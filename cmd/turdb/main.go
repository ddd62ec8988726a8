// cmd/turdb/main.go
//
// turdb is a small command-line harness over the log/checkpoint core:
// it opens (or creates) a database file, replays the log region into
// memory, optionally writes a page through the log, runs a checkpoint,
// and reports the resulting stats.
//
// Usage:
//
//	turdb [-write pageID] [-crop] [-cache] path/to/file.turdb
package main

import (
	"flag"
	"fmt"
	"os"

	"tur/pkg/dbfile"
	"tur/pkg/pager"
	"tur/pkg/wal"

	"go.uber.org/zap"
)

func main() {
	writePageNo := flag.Uint("write", 0, "write a log page for this page number before checkpointing (0 = skip)")
	crop := flag.Bool("crop", true, "truncate the file to the data region on checkpoint")
	addToCache := flag.Bool("cache", false, "keep checkpointed pages in the page cache")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: turdb [-write pageID] [-crop] [-cache] path/to/file.turdb")
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(path, uint32(*writePageNo), *crop, *addToCache, logger); err != nil {
		logger.Error("turdb run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(path string, writePageNo uint32, crop, addToCache bool, logger *zap.Logger) error {
	db, err := openOrCreate(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	opts := wal.DBOptionsFromDatabase(db)
	opts.Logger = logger

	core := wal.NewCore(db.File(), &opts)
	if err := core.Initialize(db.LastPageID()); err != nil {
		return fmt.Errorf("initializing log core: %w", err)
	}

	if writePageNo != 0 {
		page := pager.NewPage(writePageNo, db.PageSize())
		page.SetTransactionID(1)
		page.SetConfirmed(true)
		if err := core.WriteLogPagesAsync([]*pager.Page{page}); err != nil {
			return fmt.Errorf("writing log page %d: %w", writePageNo, err)
		}
		logger.Info("wrote log page", zap.Uint32("pageID", writePageNo))
	}

	n, err := core.CheckpointAsync(crop, addToCache)
	if err != nil {
		return fmt.Errorf("checkpointing: %w", err)
	}

	db.SetLastPageID(core.LastPageID())
	db.IncrementChangeCounter()
	if err := db.Sync(); err != nil {
		return fmt.Errorf("syncing header: %w", err)
	}

	stats := core.Stats()
	fmt.Printf("checkpointed %d data pages\n", n)
	fmt.Printf("lastPageID=%d pagesInLog=%d confirmedTx=%d lastCheckpointPages=%d\n",
		core.LastPageID(), stats.PagesInLog, stats.ConfirmedTxCount, stats.LastCheckpointPages)

	return nil
}

func openOrCreate(path string) (*dbfile.Database, error) {
	if _, err := os.Stat(path); err == nil {
		return dbfile.Open(path, nil)
	}
	return dbfile.Create(path, nil)
}
