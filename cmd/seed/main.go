package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/railtix/internal/cache"
	"github.com/railtix/internal/config"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/logger"
	"github.com/railtix/internal/service"
	"gorm.io/gorm"
)

// 演示数据生成器
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Logger.WithError(err).Fatal("数据库初始化失败")
	}

	fmt.Println("开始生成演示数据...")
	if err := seedDemo(context.Background(), db.DB); err != nil {
		logger.Logger.WithError(err).Fatal("演示数据生成失败")
	}

	fmt.Println("演示数据生成完成！")
	fmt.Println("管理员: admin (密码: admin123)")
	fmt.Println("活动经理: organiser (密码: organiser123)")
}

type demoEvent struct {
	title    string
	slug     string
	city     string
	venue    string
	daysOut  int
	goLive   bool
	markdown string
}

var demoEvents = []demoEvent{
	{
		title:    "Harbour Lights Festival",
		slug:     "harbour-lights",
		city:     "Wellington",
		venue:    "Frank Kitts Park",
		daysOut:  14,
		goLive:   true,
		markdown: "A night of **light installations** along the waterfront.\n\n- Food trucks\n- Live music",
	},
	{
		title:    "Southern Jazz Weekend",
		slug:     "southern-jazz",
		city:     "Christchurch",
		venue:    "Isaac Theatre Royal",
		daysOut:  30,
		goLive:   true,
		markdown: "Two days of jazz from across the South Island.",
	},
	{
		title:    "Auckland Makers Market",
		slug:     "makers-market",
		city:     "Auckland",
		venue:    "Silo Park",
		daysOut:  45,
		goLive:   false,
		markdown: "Local makers, designers and growers. Details to come.",
	},
}

func seedDemo(ctx context.Context, gdb *gorm.DB) error {
	if err := db.EnsureUserWithRole(gdb, "admin", "admin123", db.RoleAdmin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if err := db.EnsureUserWithRole(gdb, "organiser", "organiser123", db.RoleEventManager); err != nil {
		return fmt.Errorf("create organiser: %w", err)
	}
	fmt.Println("✅ 用户创建完成")

	var organiser db.User
	if err := gdb.WithContext(ctx).Where("username = ?", "organiser").First(&organiser).Error; err != nil {
		return err
	}

	events := service.NewEventService(gdb)
	liveIDs, err := seedEvents(ctx, gdb, events, service.EventActor{UserID: organiser.ID})
	if err != nil {
		return err
	}
	fmt.Println("✅ 活动创建完成")

	reserved := service.NewReservedRouteRegistry(gdb, cache.NewMemoryStore(), 0)
	if err := seedPages(ctx, gdb, service.NewPageEditor(gdb, reserved), service.NewComponentStore(gdb), liveIDs); err != nil {
		return err
	}
	fmt.Println("✅ 页面创建完成")
	return nil
}

func seedEvents(ctx context.Context, gdb *gorm.DB, events *service.EventService, actor service.EventActor) ([]uuid.UUID, error) {
	var liveIDs []uuid.UUID
	start := time.Now().Truncate(time.Hour)

	for _, demo := range demoEvents {
		var existing db.Event
		err := gdb.WithContext(ctx).Where("slug = ?", demo.slug).First(&existing).Error
		if err == nil {
			fmt.Printf("活动 %s 已存在，跳过创建\n", demo.slug)
			if existing.Status == db.EventStatusLive {
				liveIDs = append(liveIDs, existing.ID)
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		startsAt := start.AddDate(0, 0, demo.daysOut).Add(18 * time.Hour)
		created, err := events.Create(ctx, actor, service.EventInput{
			Title:         demo.title,
			Description:   demo.markdown,
			Slug:          demo.slug,
			StartsAtLocal: startsAt,
			EndsAtLocal:   startsAt.Add(4 * time.Hour),
			OrganizerName: "RailTix Demo",
			VenueName:     demo.venue,
			City:          demo.city,
			Country:       "New Zealand",
		})
		if err != nil {
			return nil, fmt.Errorf("create event %s: %w", demo.slug, err)
		}

		if demo.goLive {
			if _, err := events.SetStatus(ctx, actor, created.ID, db.EventStatusLive); err != nil {
				return nil, fmt.Errorf("publish event %s: %w", demo.slug, err)
			}
			liveIDs = append(liveIDs, created.ID)
		}
	}
	return liveIDs, nil
}

func seedPages(ctx context.Context, gdb *gorm.DB, pages *service.PageEditor, components *service.ComponentStore, liveIDs []uuid.UUID) error {
	var count int64
	if err := gdb.WithContext(ctx).Model(&db.CmsPage{}).Where("is_homepage = ?", false).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("页面已存在，跳过创建")
		return nil
	}

	var home db.CmsPage
	if err := gdb.WithContext(ctx).Where("is_homepage = ?", true).First(&home).Error; err != nil {
		return err
	}

	if _, err := components.Create(ctx, home.ID, service.ComponentInput{
		Type:      service.ComponentTypeBanner,
		IsEnabled: true,
		Fields: service.ComponentFields{
			Heading:    "Find your next night out",
			Subheading: "Tickets for festivals, gigs and markets across Aotearoa.",
			CtaLabel:   "See what's on",
			CtaURL:     "/whats-on",
		},
	}); err != nil {
		return fmt.Errorf("home banner: %w", err)
	}

	limit := 6
	if _, err := components.Create(ctx, home.ID, service.ComponentInput{
		Type:      service.ComponentTypeEventList,
		IsEnabled: true,
		Fields: service.ComponentFields{
			Source: service.EventListSourceQuery,
			Limit:  &limit,
		},
	}); err != nil {
		return fmt.Errorf("home event list: %w", err)
	}

	whatsOn, err := pages.Create(ctx, service.PageInput{
		Title:       "What's On",
		Slug:        "whats-on",
		IsPublished: true,
	})
	if err != nil {
		return fmt.Errorf("create whats-on: %w", err)
	}

	ids := make([]string, 0, len(liveIDs))
	for _, id := range liveIDs {
		ids = append(ids, id.String())
	}
	if _, err := components.Create(ctx, whatsOn.ID, service.ComponentInput{
		Type:      service.ComponentTypeEventList,
		IsEnabled: true,
		Fields: service.ComponentFields{
			Source:   service.EventListSourceManual,
			EventIDs: strings.Join(ids, ","),
		},
	}); err != nil {
		return fmt.Errorf("whats-on event list: %w", err)
	}

	wellington, err := pages.Create(ctx, service.PageInput{
		Title:       "Wellington",
		ParentID:    &whatsOn.ID,
		IsPublished: true,
	})
	if err != nil {
		return fmt.Errorf("create wellington: %w", err)
	}
	if _, err := components.Create(ctx, wellington.ID, service.ComponentInput{
		Type:      service.ComponentTypeEventList,
		IsEnabled: true,
		Fields: service.ComponentFields{
			Source:   service.EventListSourceQuery,
			Location: "Wellington",
		},
	}); err != nil {
		return fmt.Errorf("wellington event list: %w", err)
	}

	if _, err := pages.Create(ctx, service.PageInput{
		Title:       "About RailTix",
		CustomURL:   "/about",
		IsPublished: true,
	}); err != nil {
		return fmt.Errorf("create about: %w", err)
	}

	return nil
}
