package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/rouemaroc/spinwheel/cmd/app"
)

// @contact.name   Spinwheel API Support
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token of an admin, see POST /auth/login
//
// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
