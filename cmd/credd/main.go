// credd is a small development server that exposes the vault engine over
// HTTP. Every operation goes through POST /api/op with a type-tagged JSON
// body, mirroring the message shape clients use against the dispatcher.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credvault/internal/audit"
	"credvault/internal/autolock"
	"credvault/internal/dispatch"
	"credvault/internal/session"
	"credvault/internal/store"
	"credvault/internal/vault"
)

const maxBodyBytes = 1 << 20

func main() {
	addr := flag.String("addr", "127.0.0.1:8787", "listen address")
	dbPath := flag.String("db", "credvault.db", "bbolt store path")
	mongoURI := flag.String("mongo", "", "MongoDB URI (optional, overrides --db)")
	mongoDB := flag.String("mongo-db", "credvault", "Mongo database name")
	mongoColl := flag.String("mongo-coll", "vault", "Mongo collection name")
	flag.Parse()

	log.SetPrefix("credd ")

	var kv store.KVStore
	if *mongoURI != "" {
		ms, err := store.NewMongoStore(context.Background(), *mongoURI, *mongoDB, *mongoColl)
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		defer ms.Close(context.Background())
		kv = ms
		log.Printf("store: mongo %s/%s", *mongoDB, *mongoColl)
	} else {
		bs, err := store.OpenBolt(*dbPath)
		if err != nil {
			log.Fatalf("bolt: %v", err)
		}
		defer bs.Close()
		kv = bs
		log.Printf("store: bbolt %s", *dbPath)
	}

	trail := audit.NewTrail(0)

	var engine *vault.Engine
	timer := autolock.New(func() {
		log.Printf("auto-lock fired")
		engine.Lock()
	})
	engine = vault.New(kv, vault.NewSession(session.NewMemoryKeyHolder()),
		vault.WithScheduler(timer),
		vault.WithAudit(trail),
	)

	d := dispatch.New(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/api/op", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}
		req, err := dispatch.DecodeRequest(body)
		if err != nil {
			writeJSON(w, dispatch.Response{OK: false, Error: "bad request"})
			return
		}
		resp := d.Handle(r.Context(), req)
		writeJSON(w, resp)
	})
	mux.HandleFunc("/api/audit", func(w http.ResponseWriter, r *http.Request) {
		if err := trail.Verify(); err != nil {
			writeJSON(w, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, map[string]any{"ok": true, "entries": trail.Entries()})
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("shutting down")
	engine.Lock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
