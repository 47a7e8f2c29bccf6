// Command migrate applies the embedded postgres migrations.
//
//	migrate [-seed] up|down|version|to <n>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"ms-eventhub/internal/config"
	"ms-eventhub/internal/database"
	"ms-eventhub/internal/database/migrations"
	"ms-eventhub/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	seed := flag.Bool("seed", false, "also apply the sample category data")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-seed] up|down|version|to <n>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logger.New(logger.Options{Service: "migrate", Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.Database.Driver != database.DriverPostgres {
		log.Fatal("MIGRATE", fmt.Sprintf("migrations target postgres, DB_DRIVER is %q", cfg.Database.Driver))
	}

	connector := database.NewConnector(cfg.Database, log)
	db, err := connector.Connect(context.Background())
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("connect: %v", err))
	}

	runner := migrations.NewRunner(db, migrations.Options{SeedData: *seed}, log)
	defer runner.Close()

	if err := run(runner, flag.Args(), log); err != nil {
		log.Error("MIGRATE", err.Error())
		runner.Close()
		os.Exit(1)
	}
}

func run(r *migrations.Runner, args []string, log *logger.Logger) error {
	switch args[0] {
	case "up":
		return r.RunMigrations()
	case "down":
		return r.MigrateDown()
	case "to":
		if len(args) < 2 {
			return fmt.Errorf("to: missing version")
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("to: bad version %q", args[1])
		}
		return r.MigrateTo(uint(v))
	case "version":
		v, dirty, err := r.Version()
		if err != nil {
			return err
		}
		log.Info("MIGRATE", fmt.Sprintf("version=%d dirty=%t", v, dirty))
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
