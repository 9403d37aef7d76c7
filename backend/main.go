// Command backend is a development stand-in for the real Kirana
// backend. It implements the REST contract the console consumes, with
// SQLite storage and JWT bearer auth, so the console can be developed
// and demoed without the production service.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var db *gorm.DB

var (
	addr   = flag.String("addr", ":3000", "Listen address")
	dbPath = flag.String("db", "kirana-dev.db", "SQLite database path")
	seed   = flag.Bool("seed", false, "Seed demo orders on startup")
	noAuth = flag.Bool("no-auth", false, "Disable JWT auth (local development)")
)

func main() {
	flag.Parse()

	var err error
	db, err = gorm.Open("sqlite3", *dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.AutoMigrate(&OrderRecord{}, &ItemRecord{}, &TrackingRecord{}, &PersonnelRecord{})

	if *seed {
		seedOrders()
	}

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := router.Group("/")
	if !*noAuth {
		authed.Use(AuthMiddleware())
	}
	InitializeOrderRoutes(authed)

	log.Printf("Stub backend listening on %s (db %s)", *addr, *dbPath)
	router.Run(*addr)
}

// AuthMiddleware handles JWT bearer authentication. The signing key
// comes from KIRANA_JWT_SECRET; any validly signed token is accepted.
func AuthMiddleware() gin.HandlerFunc {
	secret := os.Getenv("KIRANA_JWT_SECRET")
	if secret == "" {
		secret = "kirana-dev-secret"
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
