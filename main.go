// Command micrograd-explorer serves a small MLP over HTTP: build it, train it
// on a toy dataset, score points, and inspect computation graphs.
package main

import (
	"flag"
	"io/fs"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	seed := flag.Int64("seed", 0, "random seed for weights and datasets (0 = time based)")
	web := flag.String("web", "", "directory of static files to serve at /")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	var webRoot fs.FS
	if *web != "" {
		webRoot = os.DirFS(*web)
	}

	mux := http.NewServeMux()
	NewServer(rng).RegisterRoutes(mux, webRoot)

	log.Printf("seed %d", *seed)
	log.Printf("server starting on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}
