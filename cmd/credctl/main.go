package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"credvault/internal/passgen"
	"credvault/internal/session"
	"credvault/internal/store"
	"credvault/internal/vault"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "init":
		dieIf(cmdInit(args))
	case "unlock":
		dieIf(cmdUnlock(args))
	case "lock":
		dieIf(cmdLock(args))
	case "status":
		dieIf(cmdStatus(args))
	case "add":
		dieIf(cmdAdd(args))
	case "list":
		dieIf(cmdList(args))
	case "get":
		dieIf(cmdGet(args))
	case "set":
		dieIf(cmdSet(args))
	case "del":
		dieIf(cmdDel(args))
	case "match":
		dieIf(cmdMatch(args))
	case "check":
		dieIf(cmdCheck(args))
	case "note":
		dieIf(cmdNote(args))
	case "gen":
		dieIf(cmdGen(args))
	case "passwd":
		dieIf(cmdPasswd(args))
	case "settings":
		dieIf(cmdSettings(args))
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Print(`credctl commands:

  init     [--db path] [--force]                create a vault with a new master passphrase
  unlock   [--db path] [--keyring]              unlock (with --keyring the session survives exit)
  lock     [--db path] [--keyring]              clear the session
  status   [--db path] [--keyring]              show lock state
  add      --domain example.com [--title T] --user alice [--pass p|gen:N]
  list                                          list logins (usernames only)
  get      --id <ID>                            print one decrypted login
  set      --id <ID> [--title T] [--domain D] [--user U --pass P]
  del      --id <ID>
  match    --domain accounts.example.com
  check    --domain D --user U --pass P         classify as NEW / UNCHANGED / UPDATE
  note     add|get|list|set|del ...
  gen      [--length N] [--upper] [--lower] [--digits] [--special] ...
  passwd                                        change the master passphrase
  settings [--toggle-autofill] [--timeout N]

Storage flags accepted by every command:
  --db path      bbolt file (default ~/.credvault.db)
  --mongo URI    MongoDB instead of bbolt (--mongo-db, --mongo-coll)
`)
}

// storeFlags carries the backend selection every subcommand shares.
type storeFlags struct {
	db        *string
	mongo     *string
	mongoDB   *string
	mongoColl *string
	keyring   *string
}

func addStoreFlags(fs *flag.FlagSet) *storeFlags {
	return &storeFlags{
		db:        fs.String("db", defaultDBPath(), "bbolt store path"),
		mongo:     fs.String("mongo", "", "MongoDB URI (optional)"),
		mongoDB:   fs.String("mongo-db", "credvault", "Mongo database name"),
		mongoColl: fs.String("mongo-coll", "vault", "Mongo collection name"),
		keyring:   fs.String("keyring", "", "OS keyring account for the session key (empty: in-memory)"),
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".credvault.db"
	}
	return home + "/.credvault.db"
}

type cliEnv struct {
	engine *vault.Engine
	close  func()
}

func buildEnv(sf *storeFlags, opts ...vault.Option) (*cliEnv, error) {
	ctx := context.Background()

	var kv store.KVStore
	var closer func()
	if *sf.mongo != "" {
		ms, err := store.NewMongoStore(ctx, *sf.mongo, *sf.mongoDB, *sf.mongoColl)
		if err != nil {
			return nil, err
		}
		kv = ms
		closer = func() { _ = ms.Close(context.Background()) }
	} else {
		bs, err := store.OpenBolt(*sf.db)
		if err != nil {
			return nil, err
		}
		kv = bs
		closer = func() { _ = bs.Close() }
	}

	var holder session.KeyHolder
	if *sf.keyring != "" {
		holder = session.NewKeyringHolder(*sf.keyring)
	} else {
		holder = session.NewMemoryKeyHolder()
	}

	return &cliEnv{
		engine: vault.New(kv, vault.NewSession(holder), opts...),
		close:  closer,
	}, nil
}

// ensureUnlocked prompts for the passphrase unless a keyring session already
// holds the key.
func ensureUnlocked(env *cliEnv) error {
	if !env.engine.Locked() {
		return nil
	}
	pass, err := promptSecret("Master passphrase: ")
	if err != nil {
		return err
	}
	defer zero(pass)
	if err := env.engine.Unlock(context.Background(), string(pass)); err != nil {
		return errors.New("unlock failed")
	}
	return nil
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	sf := addStoreFlags(fs)
	force := fs.Bool("force", false, "overwrite an existing vault")
	_ = fs.Parse(args)

	var opts []vault.Option
	if *force {
		opts = append(opts, vault.WithOverwrite())
	}
	env, err := buildEnv(sf, opts...)
	if err != nil {
		return err
	}
	defer env.close()

	pass, err := promptSecret("New master passphrase: ")
	if err != nil {
		return err
	}
	defer zero(pass)
	confirm, err := promptSecret("Confirm: ")
	if err != nil {
		return err
	}
	defer zero(confirm)
	if string(pass) != string(confirm) {
		return errors.New("passphrases do not match")
	}

	if err := env.engine.SetMaster(context.Background(), string(pass)); err != nil {
		if errors.Is(err, vault.ErrVaultExists) {
			return errors.New("vault already exists (use --force to overwrite)")
		}
		return err
	}
	fmt.Println("Vault created.")
	return nil
}

func cmdUnlock(args []string) error {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	sf := addStoreFlags(fs)
	_ = fs.Parse(args)

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()

	if err := ensureUnlocked(env); err != nil {
		return err
	}
	if *sf.keyring == "" {
		fmt.Println("Unlocked for this invocation only (pass --keyring to keep the session).")
	} else {
		fmt.Println("Unlocked.")
	}
	return nil
}

func cmdLock(args []string) error {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	sf := addStoreFlags(fs)
	_ = fs.Parse(args)

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	env.engine.Lock()
	fmt.Println("Locked.")
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	sf := addStoreFlags(fs)
	_ = fs.Parse(args)

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if env.engine.Locked() {
		fmt.Println("locked")
	} else {
		fmt.Println("unlocked")
	}
	return nil
}

func cmdAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	sf := addStoreFlags(fs)
	domain := fs.String("domain", "", "site domain")
	title := fs.String("title", "", "display title")
	user := fs.String("user", "", "username")
	pass := fs.String("pass", "", "password or gen:N to generate N chars")
	_ = fs.Parse(args)

	if *domain == "" || *user == "" || *pass == "" {
		return errors.New("--domain, --user and --pass required")
	}
	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}

	pw, err := expandGen(*pass)
	if err != nil {
		return err
	}
	added, err := env.engine.AddLogin(context.Background(), vault.LoginInput{
		Domain: *domain, Title: *title, Username: *user, Password: pw,
	})
	if err != nil {
		return err
	}
	fmt.Println("Added:", added.Format(time.RFC3339))
	return nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	sf := addStoreFlags(fs)
	_ = fs.Parse(args)

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}
	logins, err := env.engine.Logins(context.Background())
	if err != nil {
		return err
	}
	printJSON(logins)
	return nil
}

func cmdGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	sf := addStoreFlags(fs)
	id := fs.String("id", "", "item id")
	_ = fs.Parse(args)
	if *id == "" {
		return errors.New("--id required")
	}

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}

	ctx := context.Background()
	item, err := env.engine.Item(ctx, *id)
	if err != nil {
		return err
	}
	creds, err := env.engine.DecryptLogin(ctx, item)
	if err != nil {
		return err
	}
	printJSON(map[string]string{
		"id":       item.ID,
		"title":    item.Title,
		"domain":   item.Domain,
		"username": creds.Username,
		"password": creds.Password,
	})
	return nil
}

func cmdSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	sf := addStoreFlags(fs)
	id := fs.String("id", "", "item id")
	title := fs.String("title", "", "new title")
	domain := fs.String("domain", "", "new domain")
	user := fs.String("user", "", "new username")
	pass := fs.String("pass", "", "new password or gen:N")
	_ = fs.Parse(args)
	if *id == "" {
		return errors.New("--id required")
	}

	var patch vault.ItemPatch
	if *title != "" {
		patch.Title = title
	}
	if *domain != "" {
		patch.Domain = domain
	}
	if *user != "" && *pass != "" {
		pw, err := expandGen(*pass)
		if err != nil {
			return err
		}
		patch.Username = user
		patch.Password = &pw
	} else if *user != "" || *pass != "" {
		return errors.New("--user and --pass must be supplied together")
	}

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}
	if err := env.engine.SetItem(context.Background(), *id, patch); err != nil {
		return err
	}
	fmt.Println("Updated:", *id)
	return nil
}

func cmdDel(args []string) error {
	fs := flag.NewFlagSet("del", flag.ExitOnError)
	sf := addStoreFlags(fs)
	id := fs.String("id", "", "item id")
	_ = fs.Parse(args)
	if *id == "" {
		return errors.New("--id required")
	}

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}
	if err := env.engine.DeleteItem(context.Background(), *id); err != nil {
		return err
	}
	fmt.Println("Deleted:", *id)
	return nil
}

func cmdMatch(args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	sf := addStoreFlags(fs)
	domain := fs.String("domain", "", "domain to match")
	_ = fs.Parse(args)
	if *domain == "" {
		return errors.New("--domain required")
	}

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}
	matches, err := env.engine.Match(context.Background(), *domain)
	if err != nil {
		return err
	}
	printJSON(matches)
	return nil
}

func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	sf := addStoreFlags(fs)
	domain := fs.String("domain", "", "domain")
	user := fs.String("user", "", "username")
	pass := fs.String("pass", "", "password")
	_ = fs.Parse(args)
	if *domain == "" || *user == "" || *pass == "" {
		return errors.New("--domain, --user and --pass required")
	}

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}
	check, err := env.engine.CheckNewLogin(context.Background(), *domain, *user, *pass)
	if err != nil {
		return err
	}
	printJSON(check)
	return nil
}

func cmdNote(args []string) error {
	if len(args) < 1 {
		return errors.New("note subcommand required: add|get|list|set|del")
	}
	sub := args[0]
	rest := args[1:]

	fs := flag.NewFlagSet("note "+sub, flag.ExitOnError)
	sf := addStoreFlags(fs)
	id := fs.String("id", "", "note id")
	title := fs.String("title", "", "note title")
	content := fs.String("content", "", "note content")
	_ = fs.Parse(rest)

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	if err := ensureUnlocked(env); err != nil {
		return err
	}
	ctx := context.Background()

	switch sub {
	case "add":
		if *title == "" {
			return errors.New("--title required")
		}
		newID, err := env.engine.AddNote(ctx, *title, *content)
		if err != nil {
			return err
		}
		fmt.Println("Added note:", newID)
	case "get":
		if *id == "" {
			return errors.New("--id required")
		}
		note, err := env.engine.Note(ctx, *id)
		if err != nil {
			return err
		}
		printJSON(note)
	case "list":
		notes, err := env.engine.Notes(ctx)
		if err != nil {
			return err
		}
		printJSON(notes)
	case "set":
		if *id == "" {
			return errors.New("--id required")
		}
		if err := env.engine.SetNote(ctx, *id, *title, *content); err != nil {
			return err
		}
		fmt.Println("Updated note:", *id)
	case "del":
		if *id == "" {
			return errors.New("--id required")
		}
		if err := env.engine.DeleteNote(ctx, *id); err != nil {
			return err
		}
		fmt.Println("Deleted note:", *id)
	default:
		return fmt.Errorf("unknown note subcommand %q", sub)
	}
	return nil
}

func cmdGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	length := fs.Int("length", 12, "password length")
	upper := fs.Bool("upper", true, "include uppercase letters")
	lower := fs.Bool("lower", true, "include lowercase letters")
	digits := fs.Bool("digits", true, "include digits")
	special := fs.Bool("special", false, "include punctuation")
	avoid := fs.Bool("avoid-similar", true, "drop visually confusable characters")
	requireEach := fs.Bool("require-each", true, "guarantee one character per selected class")
	_ = fs.Parse(args)

	pw, err := passgen.Generate(passgen.Options{
		Length: *length, Upper: *upper, Lower: *lower, Digits: *digits,
		Special: *special, AvoidSimilar: *avoid, RequireEachSelected: *requireEach,
	})
	if err != nil {
		return err
	}
	fmt.Println(pw)
	return nil
}

func cmdPasswd(args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	sf := addStoreFlags(fs)
	_ = fs.Parse(args)

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()

	oldPass, err := promptSecret("Current master passphrase: ")
	if err != nil {
		return err
	}
	defer zero(oldPass)
	newPass, err := promptSecret("New master passphrase: ")
	if err != nil {
		return err
	}
	defer zero(newPass)
	confirm, err := promptSecret("Confirm: ")
	if err != nil {
		return err
	}
	defer zero(confirm)
	if string(newPass) != string(confirm) {
		return errors.New("passphrases do not match")
	}

	err = env.engine.ChangeMasterPassword(context.Background(), string(oldPass), string(newPass))
	switch {
	case errors.Is(err, vault.ErrNoVault):
		return errors.New("No vault")
	case errors.Is(err, vault.ErrOldMaster):
		return errors.New("Old master incorrect")
	case errors.Is(err, vault.ErrSameMaster):
		return errors.New("New master must be different from old master")
	case err != nil:
		return err
	}
	fmt.Println("Master passphrase changed; every item was re-encrypted.")
	return nil
}

func cmdSettings(args []string) error {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	sf := addStoreFlags(fs)
	toggleAutofill := fs.Bool("toggle-autofill", false, "flip the autofill flag")
	timeout := fs.Int("timeout", 0, "set auto-lock timeout in minutes")
	_ = fs.Parse(args)

	env, err := buildEnv(sf)
	if err != nil {
		return err
	}
	defer env.close()
	ctx := context.Background()

	if *toggleAutofill {
		v, err := env.engine.ToggleAutofill(ctx)
		if err != nil {
			return err
		}
		fmt.Println("autofill:", v)
	}
	if *timeout > 0 {
		if err := env.engine.SetTimeoutMinutes(ctx, *timeout); err != nil {
			return err
		}
	}

	autofill, err := env.engine.AutofillEnabled(ctx)
	if err != nil {
		return err
	}
	minutes, err := env.engine.TimeoutMinutes(ctx)
	if err != nil {
		return err
	}
	printJSON(map[string]any{"autofill": autofill, "timeoutMinutes": minutes})
	return nil
}

// ---- helpers ----

func promptSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pass, nil
}

// expandGen replaces a gen:N password argument with a generated password.
func expandGen(pass string) (string, error) {
	if !strings.HasPrefix(pass, "gen:") {
		return pass, nil
	}
	var n int
	_, _ = fmt.Sscanf(pass, "gen:%d", &n)
	if n <= 0 {
		n = 20
	}
	return passgen.Generate(passgen.Options{
		Length: n, Upper: true, Lower: true, Digits: true, Special: true,
		AvoidSimilar: true, RequireEachSelected: true,
	})
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
