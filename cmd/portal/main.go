// Command portal is the terminal front end for sellers, collectors and the
// admin. It keeps the session in a local file between invocations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnshRaj112/ridit-backend/internal/config"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/portal"
	"github.com/AnshRaj112/ridit-backend/internal/portal/api"
	"github.com/AnshRaj112/ridit-backend/internal/portal/session"
	"github.com/AnshRaj112/ridit-backend/pkg/geo"
	"github.com/AnshRaj112/ridit-backend/pkg/pricing"
)

type command func(ctx context.Context, p *portal.Portal, args []string) (any, error)

var commands = map[string]command{
	"login":        login,
	"admin-login":  adminLogin,
	"logout":       logout,
	"whoami":       whoami,
	"item":         item,
	"location":     locationCmd,
	"available":    available,
	"accepted":     accepted,
	"accept":       accept,
	"complete":     complete,
	"subscription": subscription,
	"dashboard":    dashboard,
	"admin":        adminCmd,
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: portal <command> [flags]

  login -id <phone|email> -password <pw>
  admin-login -email <email> -password <pw>
  logout | whoami | dashboard
  item add|list|status|history|cancel|delete|preview ...
  location set -lat <lat> -lng <lng> [-radius <km>] [-area <name>] | location get
  available [-category <c>] | accepted | accept <itemId> | complete <itemId> -weight <kg>
  subscription
  admin overview|users|items|subscriptions|create-user|user|set-role|delete-user|
        delete-item|override-weight|activate|cancel-subscription ...`)
}

func main() {
	log.SetFlags(0)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️ .env: %v", err)
	}
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadPortal()
	// Every command is its own process, so a login prefetch would be
	// thrown away before any dashboard could read it.
	cfg.LoginPrefetch = false
	p := portal.New(cfg, nil, nil)

	out, err := cmd(ctx, p, os.Args[2:])
	if err != nil {
		log.Printf("❌ %v", err)
		if api.IsUnauthorized(err) || errors.Is(err, session.ErrNotAuthenticated) {
			log.Println("Run `portal login` to sign in.")
		}
		os.Exit(1)
	}
	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatal(err)
		}
	}
}

func needArg(args []string, name string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", fmt.Errorf("missing %s", name)
	}
	return args[0], nil
}

// --- session ---

func login(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	id := fs.String("id", "", "phone or email")
	pw := fs.String("password", "", "password")
	fs.Parse(args)

	s, err := p.Session.Login(ctx, models.LoginRequest{Identifier: *id, Password: *pw})
	if err != nil {
		return nil, err
	}
	return publicSession(s), nil
}

func adminLogin(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	fs := flag.NewFlagSet("admin-login", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	pw := fs.String("password", "", "password")
	fs.Parse(args)

	s, err := p.Session.LoginAdmin(ctx, *email, *pw)
	if err != nil {
		return nil, err
	}
	return publicSession(s), nil
}

func logout(ctx context.Context, p *portal.Portal, _ []string) (any, error) {
	if err := p.Session.Logout(ctx); err != nil {
		return nil, err
	}
	return map[string]string{"message": "Logged out"}, nil
}

func whoami(_ context.Context, p *portal.Portal, _ []string) (any, error) {
	s, err := p.Session.Require()
	if err != nil {
		return nil, err
	}
	return publicSession(s), nil
}

func publicSession(s session.Session) map[string]string {
	return map[string]string{"user_id": s.UserID, "role": string(s.Role), "name": s.Name}
}

func requireRole(p *portal.Portal, role models.Role) (session.Session, error) {
	s, err := p.Session.Require()
	if err != nil {
		return s, err
	}
	if s.Role != role {
		return s, fmt.Errorf("this command needs a %s session, you are logged in as %s", role, s.Role)
	}
	return s, nil
}

// --- seller ---

func item(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	sub, err := needArg(args, "item subcommand")
	if err != nil {
		return nil, err
	}
	args = args[1:]

	if sub == "preview" {
		fs := flag.NewFlagSet("item preview", flag.ExitOnError)
		category := fs.String("category", "", "plastic, paper, metal or ewaste")
		kg := fs.Float64("kg", 0, "quantity in kg")
		fs.Parse(args)
		price, err := p.Items.PreviewPrice(pricing.Category(*category), *kg)
		if err != nil {
			return nil, err
		}
		return map[string]any{"estimated_price": price, "note": "Final price based on actual weight at pickup"}, nil
	}

	s, err := requireRole(p, models.RoleSeller)
	if err != nil {
		return nil, err
	}

	switch sub {
	case "add":
		return addItem(ctx, p, s, args)
	case "list":
		fs := flag.NewFlagSet("item list", flag.ExitOnError)
		status := fs.String("status", "", "filter by status")
		fs.Parse(args)
		return p.Items.ListSellerItems(ctx, s.UserID, models.ItemStatus(*status))
	case "status":
		id, err := needArg(args, "item id")
		if err != nil {
			return nil, err
		}
		return p.API.ItemStatus(ctx, id)
	case "history":
		id, err := needArg(args, "item id")
		if err != nil {
			return nil, err
		}
		return p.API.ItemHistory(ctx, id, time.Time{}, 0)
	case "cancel":
		id, err := needArg(args, "item id")
		if err != nil {
			return nil, err
		}
		return p.Items.CancelItem(ctx, id)
	case "delete":
		id, err := needArg(args, "item id")
		if err != nil {
			return nil, err
		}
		if err := p.Items.DeleteItem(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"message": "Item deleted", "item_id": id}, nil
	}
	return nil, fmt.Errorf("unknown item subcommand %q", sub)
}

func addItem(ctx context.Context, p *portal.Portal, s session.Session, args []string) (any, error) {
	fs := flag.NewFlagSet("item add", flag.ExitOnError)
	var d models.ItemDraft
	category := fs.String("category", "", "plastic, paper, metal or ewaste")
	fs.Float64Var(&d.QuantityKg, "kg", 0, "quantity in kg")
	fs.StringVar(&d.Description, "desc", "", "description")
	image := fs.String("image", "", "path to a photo to upload")
	fs.StringVar(&d.Address.Street, "street", "", "street")
	fs.StringVar(&d.Address.City, "city", "", "city")
	fs.StringVar(&d.Address.ZipCode, "zip", "", "zip code")
	fs.Float64Var(&d.Address.Coordinates.Lat, "lat", 0, "pickup latitude")
	fs.Float64Var(&d.Address.Coordinates.Lng, "lng", 0, "pickup longitude")
	fs.StringVar(&d.PickupSlot.Date, "date", "", "pickup date YYYY-MM-DD")
	fs.StringVar(&d.PickupSlot.StartTime, "start", "", "window start HH:MM")
	fs.StringVar(&d.PickupSlot.EndTime, "end", "", "window end HH:MM")
	fs.Parse(args)
	d.Category = pricing.Category(*category)

	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		url, err := p.API.UploadImage(ctx, filepath.Base(*image), f)
		if err != nil {
			return nil, err
		}
		d.ImageURL = url
	}
	return p.Items.CreateItem(ctx, s.UserID, d)
}

// --- location ---

func locationCmd(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	sub, err := needArg(args, "location subcommand")
	if err != nil {
		return nil, err
	}
	s, err := p.Session.Require()
	if err != nil {
		return nil, err
	}
	switch sub {
	case "get":
		return p.Location.GetLocation(ctx, s.UserID, s.Role)
	case "set":
		fs := flag.NewFlagSet("location set", flag.ExitOnError)
		lat := fs.Float64("lat", 0, "latitude")
		lng := fs.Float64("lng", 0, "longitude")
		radius := fs.Float64("radius", 0, "collector search radius in km")
		area := fs.String("area", "", "area name; reverse geocoded when empty")
		fs.Parse(args[1:])

		var radiusKm *float64
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "radius" {
				radiusKm = radius
			}
		})
		return p.Location.SaveLocation(ctx, s.UserID, s.Role, geo.Coordinates{Lat: *lat, Lng: *lng}, radiusKm, *area)
	}
	return nil, fmt.Errorf("unknown location subcommand %q", sub)
}

// --- collector ---

func available(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	s, err := requireRole(p, models.RoleCollector)
	if err != nil {
		return nil, err
	}
	fs := flag.NewFlagSet("available", flag.ExitOnError)
	category := fs.String("category", "", "filter by category")
	fs.Parse(args)
	return p.Items.ListAvailableItems(ctx, s.UserID, pricing.Category(*category))
}

func accepted(ctx context.Context, p *portal.Portal, _ []string) (any, error) {
	s, err := requireRole(p, models.RoleCollector)
	if err != nil {
		return nil, err
	}
	return p.Items.ListAcceptedItems(ctx, s.UserID)
}

func accept(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	s, err := requireRole(p, models.RoleCollector)
	if err != nil {
		return nil, err
	}
	id, err := needArg(args, "item id")
	if err != nil {
		return nil, err
	}
	it, err := p.Items.AcceptItem(ctx, id, s.UserID)
	if api.IsConflict(err) {
		return nil, fmt.Errorf("item %s was already taken by another collector", id)
	}
	return it, err
}

func complete(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	s, err := requireRole(p, models.RoleCollector)
	if err != nil {
		return nil, err
	}
	id, err := needArg(args, "item id")
	if err != nil {
		return nil, err
	}
	fs := flag.NewFlagSet("complete", flag.ExitOnError)
	weight := fs.Float64("weight", 0, "actual weight in kg")
	fs.Parse(args[1:])
	return p.Items.CompleteCollection(ctx, id, s.UserID, *weight)
}

func subscription(ctx context.Context, p *portal.Portal, _ []string) (any, error) {
	s, err := requireRole(p, models.RoleCollector)
	if err != nil {
		return nil, err
	}
	return p.API.Subscription(ctx, s.UserID)
}

func dashboard(ctx context.Context, p *portal.Portal, _ []string) (any, error) {
	s, err := p.Session.Require()
	if err != nil {
		return nil, err
	}
	switch s.Role {
	case models.RoleSeller:
		return p.Items.SellerDashboard(ctx, s.UserID)
	case models.RoleCollector:
		return p.Items.CollectorDashboard(ctx, s.UserID)
	case models.RoleAdmin:
		return p.Admin.Overview(ctx)
	}
	return nil, fmt.Errorf("unknown role %q", s.Role)
}

// --- admin ---

func adminCmd(ctx context.Context, p *portal.Portal, args []string) (any, error) {
	if _, err := requireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	sub, err := needArg(args, "admin subcommand")
	if err != nil {
		return nil, err
	}
	args = args[1:]

	switch sub {
	case "overview":
		return p.Admin.Overview(ctx)
	case "users":
		return p.Admin.ListAllUsers(ctx)
	case "items":
		return p.Admin.ListAllItems(ctx)
	case "subscriptions":
		return p.Admin.ListAllSubscriptions(ctx)
	case "create-user":
		fs := flag.NewFlagSet("admin create-user", flag.ExitOnError)
		req := models.AdminCreateUserRequest{}
		fs.StringVar(&req.Name, "name", "", "full name")
		fs.StringVar(&req.Email, "email", "", "email (required for admins)")
		fs.StringVar(&req.Phone, "phone", "", "phone number")
		fs.StringVar(&req.Password, "password", "", "initial password")
		role := fs.String("role", string(models.RoleSeller), "seller, collector or admin")
		fs.Parse(args)
		req.Role = models.Role(*role)
		return p.Admin.CreateUser(ctx, req)
	}

	target, err := needArg(args, "id")
	if err != nil {
		return nil, err
	}
	fs := flag.NewFlagSet("admin "+sub, flag.ExitOnError)
	role := fs.String("role", "", "seller, collector or admin")
	weight := fs.Float64("weight", 0, "corrected weight in kg")
	plan := fs.String("plan", "basic", "plan type")
	days := fs.Int("days", 30, "days valid")
	fs.Parse(args[1:])

	switch sub {
	case "user":
		return p.Admin.GetUser(ctx, target)
	case "set-role":
		return p.Admin.UpdateUserRole(ctx, target, models.Role(*role))
	case "delete-user":
		return deleted("User", target, p.Admin.DeleteUser(ctx, target))
	case "delete-item":
		return deleted("Item", target, p.Admin.DeleteItem(ctx, target))
	case "override-weight":
		return p.Admin.OverrideItemWeight(ctx, target, *weight)
	case "activate":
		return p.Admin.ActivateSubscription(ctx, target, *plan, *days)
	case "cancel-subscription":
		return p.Admin.CancelSubscription(ctx, target)
	}
	return nil, fmt.Errorf("unknown admin subcommand %q", sub)
}

func deleted(kind, id string, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return map[string]string{"message": kind + " deleted", "id": id}, nil
}
