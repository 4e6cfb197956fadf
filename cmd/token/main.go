// Command token issues a tenant access token signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iliyamo/rateshop/internal/config"
	"github.com/iliyamo/rateshop/internal/utils"
)

func main() {
	tenant := flag.Uint64("tenant", 0, "tenant id")
	role := flag.String("role", "", "optional role claim, e.g. ADMIN")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	config.LoadDotenv()
	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *tenant, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintln(os.Stderr, "expires", tok.Exp.Format(time.RFC3339))
}
