package main

import (
	"log"

	"github.com/memberhub/adminauth/internal/admin/app"
)

//	@title			MemberHub Admin Authorization API
//	@version		0.1.0
//	@description	Role grants, multi-party admin invites and claim reconciliation for the member portal.

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
