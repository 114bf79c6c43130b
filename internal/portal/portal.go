// Package portal assembles the client side of the marketplace: API client,
// session store, item lifecycle, location and admin tooling.
package portal

import (
	"log"
	"net/http"

	"github.com/AnshRaj112/ridit-backend/internal/config"
	"github.com/AnshRaj112/ridit-backend/internal/portal/admin"
	"github.com/AnshRaj112/ridit-backend/internal/portal/api"
	"github.com/AnshRaj112/ridit-backend/internal/portal/lifecycle"
	"github.com/AnshRaj112/ridit-backend/internal/portal/location"
	"github.com/AnshRaj112/ridit-backend/internal/portal/session"
	"github.com/AnshRaj112/ridit-backend/pkg/geocode"
	"github.com/AnshRaj112/ridit-backend/pkg/pricing"
)

type Portal struct {
	Config   *config.PortalConfig
	API      *api.Client
	Session  *session.Store
	Items    *lifecycle.Controller
	Location *location.Service
	Admin    *admin.Panel
}

// New wires a portal. A nil storage uses the session file from cfg; source
// may be nil when no position provider is available.
func New(cfg *config.PortalConfig, storage session.Storage, source location.PositionSource) *Portal {
	if storage == nil {
		storage = session.FileStorage{Path: cfg.SessionFile}
	}

	client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.RequestTimeout}, nil)
	store, err := session.Init(storage, client)
	if err != nil {
		log.Printf("⚠️ Could not restore session, starting logged out: %v", err)
	}
	client.SetTokenSource(store)
	client.OnUnauthorized = store.HandleUnauthorized

	items := lifecycle.New(client, pricing.DefaultRates, lifecycle.NewPrefetchCache(cfg.PrefetchTTL))
	if cfg.LoginPrefetch {
		store.OnLogin(func(s session.Session) { items.PrefetchAsync(s.UserID, s.Role) })
	}
	store.OnLogout(items.ClearPrefetch)

	var geocoder geocode.Reverser
	if cfg.GeocoderURL != "" {
		geocoder = geocode.NewNominatim(cfg.GeocoderURL)
	}

	return &Portal{
		Config:   cfg,
		API:      client,
		Session:  store,
		Items:    items,
		Location: location.New(client, geocoder, source),
		Admin:    admin.New(client),
	}
}
