package main

import (
	"flag"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"purchase-verdict/internal/catalog"
	"purchase-verdict/internal/store"
)

func main() {
	var (
		dbPath  = flag.String("db", filepath.FromSlash("data/purchase-verdict.db"), "Path to SQLite database")
		csvPath = flag.String("csv", "", "Vendor catalog CSV (name,category,quality,reliability,price_tier)")
	)
	flag.Parse()

	if *csvPath == "" {
		logrus.Fatal("missing -csv path to the vendor catalog file")
	}

	db, err := store.Open(*dbPath, true)
	if err != nil {
		logrus.Fatalf("open database: %v", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close database")
		}
	}()

	count, err := catalog.NewService(db).LoadFromCSV(*csvPath)
	if err != nil {
		logrus.Fatalf("load vendor catalog: %v", err)
	}
	logrus.WithField("vendors", count).Info("vendor catalog replaced")
}
