package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kjk/asistentepa/backup"
	"github.com/kjk/asistentepa/config"
	"github.com/kjk/asistentepa/log"
	"github.com/kjk/asistentepa/species"
	"github.com/tidwall/pretty"
)

const usage = `usage: asistentepa [-config file] [-dir dir] [-file name] [-strict] [-verbose] <command> [args]

commands:
  add -name <name> [-common ..] [-category ..] [-cycle ..] [-humidity ..] [-light ..] [-temp ..] [-price ..]
  update -name <name> [same flags as add]  replaces all fields
  get [-json] <name>
  list [-json]
  delete <name>
  backup [-upload] <file>                  .zst, .br and .gz are compressed
  restore [-download] <file>
  history                                  changes recorded in log dir
  demo                                     adds, lists, finds and updates Sedum_morganianum
`

var errUsage = errors.New("invalid usage")

type app struct {
	cfg    *config.Config
	store  *species.Store
	stdout io.Writer
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil && !errors.Is(err, errUsage) {
		log.CommandFailed(os.Args[1:], err)
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
	}
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("asistentepa", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() {
		fmt.Fprint(stdout, usage)
	}
	var (
		flgConfig  string
		flgDir     string
		flgFile    string
		flgLogDir  string
		flgStrict  bool
		flgVerbose bool
	)
	fs.StringVar(&flgConfig, "config", "", "path of JSON config file")
	fs.StringVar(&flgDir, "dir", "", "directory with the species file")
	fs.StringVar(&flgFile, "file", "", "name of the species file")
	fs.StringVar(&flgLogDir, "log-dir", "", "directory for logs and change history")
	fs.BoolVar(&flgStrict, "strict", false, "fail on numbers that don't parse")
	fs.BoolVar(&flgVerbose, "verbose", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg := config.Default()
	if flgConfig != "" {
		var err error
		if cfg, err = config.Load(flgConfig); err != nil {
			return err
		}
	}
	if flgDir != "" {
		cfg.DataDir = flgDir
	}
	if flgFile != "" {
		cfg.FileName = flgFile
	}
	if flgLogDir != "" {
		cfg.LogDir = flgLogDir
	}
	cfg.StrictNumbers = cfg.StrictNumbers || flgStrict
	cfg.Verbose = cfg.Verbose || flgVerbose
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Verbose = cfg.Verbose
	if cfg.LogDir != "" {
		if err := log.Init(&log.Config{Dir: cfg.LogDir}); err != nil {
			return err
		}
	}

	a := &app{
		cfg:    cfg,
		stdout: stdout,
	}
	a.store = &species.Store{
		DataDir:  cfg.DataDir,
		FileName: cfg.FileName,
		OnCoerce: log.NumberCoerced,
	}
	if cfg.StrictNumbers {
		a.store.Numeric = species.NumericStrict
	}
	if err := species.OpenStore(a.store); err != nil {
		return err
	}
	log.Verbosef("species file: %s, numbers: %s\n", a.store.Path(), a.store.Numeric)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}
	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "add":
		return a.cmdAddOrUpdate(cmdArgs, false)
	case "update":
		return a.cmdAddOrUpdate(cmdArgs, true)
	case "get":
		return a.cmdGet(cmdArgs)
	case "list":
		return a.cmdList(cmdArgs)
	case "delete":
		return a.cmdDelete(cmdArgs)
	case "backup":
		return a.cmdBackup(cmdArgs)
	case "restore":
		return a.cmdRestore(cmdArgs)
	case "history":
		return a.cmdHistory()
	case "demo":
		return a.cmdDemo()
	}
	fmt.Fprintf(stdout, "unknown command '%s'\n", cmd)
	fs.Usage()
	return errUsage
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	return fs
}

func (a *app) cmdAddOrUpdate(args []string, isUpdate bool) error {
	var sp species.Species
	fs := a.newFlagSet("add")
	fs.StringVar(&sp.ScientificName, "name", "", "scientific name (key)")
	fs.StringVar(&sp.CommonName, "common", "", "common name")
	fs.StringVar(&sp.Category, "category", "", "category")
	fs.IntVar(&sp.CycleDays, "cycle", 0, "production cycle in days")
	fs.Float64Var(&sp.RequiredHumidity, "humidity", 0, "required humidity")
	fs.Float64Var(&sp.RequiredLight, "light", 0, "required light")
	fs.Float64Var(&sp.OptimalTemperature, "temp", 0, "optimal temperature")
	fs.Float64Var(&sp.SalePrice, "price", 0, "sale price")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if isUpdate {
		if err := a.store.Update(&sp); err != nil {
			return err
		}
		log.Event("update", "key", sp.ScientificName, "price", sp.SalePrice)
		fmt.Fprintf(a.stdout, "updated %s\n", sp.ScientificName)
		return nil
	}
	if err := a.store.Insert(&sp); err != nil {
		return err
	}
	log.Event("insert", "key", sp.ScientificName, "price", sp.SalePrice)
	fmt.Fprintf(a.stdout, "added %s\n", sp.ScientificName)
	return nil
}

func (a *app) printJSON(v any) error {
	d, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(pretty.Pretty(d))
	return err
}

func (a *app) cmdGet(args []string) error {
	fs := a.newFlagSet("get")
	asJSON := fs.Bool("json", false, "print as JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(a.stdout, "get: expected 1 name, got %d\n", fs.NArg())
		return errUsage
	}
	sp, err := a.store.Find(fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return a.printJSON(sp)
	}
	fmt.Fprintf(a.stdout, "%s\n", sp)
	return nil
}

func (a *app) cmdList(args []string) error {
	fs := a.newFlagSet("list")
	asJSON := fs.Bool("json", false, "print as JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	all, err := a.store.ReadAll()
	if err != nil {
		return err
	}
	if *asJSON {
		if all == nil {
			all = []species.Species{}
		}
		return a.printJSON(all)
	}
	for i := range all {
		fmt.Fprintf(a.stdout, "%s\n", &all[i])
	}
	log.Verbosef("%d species\n", len(all))
	return nil
}

func (a *app) cmdDelete(args []string) error {
	if len(args) != 1 {
		fmt.Fprintf(a.stdout, "delete: expected 1 name, got %d\n", len(args))
		return errUsage
	}
	key := args[0]
	n, err := a.store.Delete(key)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintf(a.stdout, "%s not found, nothing deleted\n", key)
		return nil
	}
	log.Event("delete", "key", key, "count", n)
	fmt.Fprintf(a.stdout, "deleted %s\n", key)
	return nil
}

func (a *app) remote(ctx context.Context) (*backup.Remote, error) {
	if a.cfg.Remote == nil {
		return nil, errors.New("no remote configured, add \"remote\" to config file")
	}
	return backup.NewRemote(ctx, a.cfg.Remote)
}

func (a *app) cmdBackup(args []string) error {
	fs := a.newFlagSet("backup")
	upload := fs.Bool("upload", false, "upload to configured remote")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(a.stdout, "backup: expected 1 file, got %d\n", fs.NArg())
		return errUsage
	}
	dst := fs.Arg(0)
	if err := backup.Snapshot(a.store, dst); err != nil {
		return err
	}
	log.Event("backup", "path", dst)
	fmt.Fprintf(a.stdout, "saved %s\n", dst)
	if !*upload {
		return nil
	}
	ctx := context.Background()
	r, err := a.remote(ctx)
	if err != nil {
		return err
	}
	remotePath := filepath.Base(dst)
	if _, err = r.Upload(ctx, remotePath, dst); err != nil {
		return err
	}
	log.Event("upload", "remote", r.RemotePath(remotePath))
	fmt.Fprintf(a.stdout, "uploaded %s\n", r.RemotePath(remotePath))
	return nil
}

func (a *app) cmdRestore(args []string) error {
	fs := a.newFlagSet("restore")
	download := fs.Bool("download", false, "download from configured remote first")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(a.stdout, "restore: expected 1 file, got %d\n", fs.NArg())
		return errUsage
	}
	src := fs.Arg(0)
	if *download {
		ctx := context.Background()
		r, err := a.remote(ctx)
		if err != nil {
			return err
		}
		if err = r.Download(ctx, filepath.Base(src), src); err != nil {
			return err
		}
	}
	n, err := backup.Restore(a.store, src)
	if err != nil {
		return err
	}
	log.Event("restore", "path", src, "count", n)
	fmt.Fprintf(a.stdout, "restored %d species from %s\n", n, src)
	return nil
}

func (a *app) cmdHistory() error {
	if a.cfg.LogDir == "" {
		return errors.New("history needs -log-dir or log_dir in config")
	}
	log.Flush()
	recs, err := log.ReadEventsDir(log.EventsDir(a.cfg.LogDir))
	if err != nil {
		return err
	}
	for _, rec := range recs {
		data := strings.ReplaceAll(strings.TrimSpace(string(rec.Data)), "\n", ", ")
		fmt.Fprintf(a.stdout, "%s %s %s\n", rec.Time.Format("2006-01-02 15:04:05"), rec.Name, data)
	}
	return nil
}

func (a *app) cmdDemo() error {
	sp := &species.Species{
		ScientificName:     "Sedum_morganianum",
		CommonName:         "Cola de burro",
		Category:           "Suculenta",
		CycleDays:          90,
		RequiredHumidity:   50.0,
		RequiredLight:      6.0,
		OptimalTemperature: 22.0,
		SalePrice:          25000.0,
	}
	if err := a.store.Insert(sp); err != nil {
		return err
	}
	log.Event("insert", "key", sp.ScientificName, "price", sp.SalePrice)
	if err := a.cmdList(nil); err != nil {
		return err
	}
	found, err := a.store.Find(sp.ScientificName)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "found: %s\n", found)
	sp.SalePrice = 28000.0
	if err = a.store.Update(sp); err != nil {
		return err
	}
	log.Event("update", "key", sp.ScientificName, "price", sp.SalePrice)
	fmt.Fprintf(a.stdout, "updated: %s\n", sp)
	return nil
}
