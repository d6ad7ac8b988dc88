package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const usage = `Usage: coursectl [flags] <commande> [args]

Commandes:
  health | version | course | progress
  watch <videoId>      marque une vidéo comme vue
  unwatch <videoId>    retire la marque
  resume <videoId> <secondes>
  reset                efface toute la progression
  rescan               reconstruit le modèle du cours`

func main() {
	baseURL := flag.String("server", envOr("CP_SERVER_URL", "http://127.0.0.1:8000"), "URL du serveur (ex: http://127.0.0.1:8000)")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout HTTP")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := resty.New().
		SetBaseURL(*baseURL).
		SetTimeout(*timeout).
		SetHeader("Accept", "application/json")

	var (
		resp *resty.Response
		err  error
	)
	switch args[0] {
	case "health", "version", "course", "progress":
		resp, err = client.R().Get("/api/" + args[0])
	case "watch", "unwatch":
		need(args, 2)
		resp, err = client.R().
			SetBody(map[string]any{"videoId": args[1], "watched": args[0] == "watch"}).
			Post("/api/progress/watch")
	case "resume":
		need(args, 3)
		secs, perr := strconv.ParseFloat(args[2], 64)
		if perr != nil {
			fmt.Fprintln(os.Stderr, "Secondes invalides:", args[2])
			os.Exit(2)
		}
		resp, err = client.R().
			SetBody(map[string]any{"videoId": args[1], "timeSeconds": secs}).
			Post("/api/progress/resume")
	case "reset":
		resp, err = client.R().Post("/api/progress/reset")
	case "rescan":
		resp, err = client.R().Post("/api/course/rescan")
	default:
		fmt.Fprintln(os.Stderr, "Commande inconnue:", args[0])
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func need(args []string, n int) {
	if len(args) < n {
		flag.Usage()
		os.Exit(2)
	}
}

func printResponse(resp *resty.Response) {
	var out bytes.Buffer
	if err := json.Indent(&out, resp.Body(), "", "  "); err == nil {
		out.WriteByte('\n')
		_, _ = os.Stdout.Write(out.Bytes())
	} else {
		_, _ = os.Stdout.Write(resp.Body())
		_, _ = os.Stdout.Write([]byte("\n"))
	}
	if resp.IsError() {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
