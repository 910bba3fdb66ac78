package meta

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/bgerr"
	"exusiai.dev/bgstats/internal/pkg/flog"
	"exusiai.dev/bgstats/internal/pkg/middlewares"
	"exusiai.dev/bgstats/internal/server/svr"
	"exusiai.dev/bgstats/internal/service"
)

const defaultVersionsLimit = 20

type AdminController struct {
	fx.In

	AggregateService   *service.Aggregate
	DispatchService    *service.Dispatch
	SnapshotService    *service.Snapshot
	ContentPoolService *service.ContentPool
}

func RegisterAdmin(admin *svr.Admin, c AdminController) {
	admin.Get("/selectors/:entity", c.ListSelectors)

	admin.Post("/aggregate", middlewares.InjectValidBody[model.AggregateJob](), c.Aggregate)
	admin.Post("/dispatch", middlewares.InjectValidBody[model.AggregateJob](), c.Dispatch)
	admin.Post("/dispatch/:entity", c.DispatchAll)

	admin.Get("/snapshots/versions", c.ListVersions)
	admin.Get("/snapshots/diff", c.Diff)

	admin.Post("/content/invalidate", c.InvalidateContent)
}

func entityParam(ctx *fiber.Ctx) (shard.Entity, error) {
	entity := shard.Entity(ctx.Params("entity"))
	if !entity.Valid() {
		return "", bgerr.ErrInvalidReq.Msg("unknown entity %q", entity)
	}
	return entity, nil
}

func selectorFromBody(ctx *fiber.Ctx) (model.Selector, error) {
	job := ctx.Locals(middlewares.BodyLocalsKey).(*model.AggregateJob)
	sel, err := job.Selector()
	if err != nil {
		return model.Selector{}, bgerr.ErrInvalidReq.Msg("invalid selector: %s", err)
	}
	return sel, nil
}

func (c *AdminController) ListSelectors(ctx *fiber.Ctx) error {
	entity, err := entityParam(ctx)
	if err != nil {
		return err
	}
	selectors, err := c.AggregateService.Selectors(ctx.UserContext(), entity)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"entity": entity,
		"count":  len(selectors),
		"selectors": lo.Map(selectors, func(s model.Selector, _ int) string {
			return s.String()
		}),
	})
}

// Aggregate runs one selector synchronously.
func (c *AdminController) Aggregate(ctx *fiber.Ctx) error {
	sel, err := selectorFromBody(ctx)
	if err != nil {
		return err
	}

	res, err := c.AggregateService.RunJob(ctx.UserContext(), sel)
	if errors.Is(err, service.ErrNoData) {
		return bgerr.ErrNoData
	}
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"selector":   sel.String(),
		"key":        res.Key,
		"version":    res.Version,
		"files":      res.Files,
		"dataPoints": res.DataPoints,
		"stats":      res.Stats,
		"dropped":    res.Dropped,
	})
}

func (c *AdminController) Dispatch(ctx *fiber.Ctx) error {
	sel, err := selectorFromBody(ctx)
	if err != nil {
		return err
	}
	job, err := c.DispatchService.Publish(ctx.UserContext(), sel)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(job)
}

func (c *AdminController) DispatchAll(ctx *fiber.Ctx) error {
	entity, err := entityParam(ctx)
	if err != nil {
		return err
	}
	n, err := c.DispatchService.PublishAll(ctx.UserContext(), entity)
	if err != nil {
		flog.ErrorFrom(ctx).Err(err).Int("published", n).Msg("dispatch interrupted")
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"entity":    entity,
		"published": n,
	})
}

func (c *AdminController) ListVersions(ctx *fiber.Ctx) error {
	key := ctx.Query("key")
	if key == "" {
		return bgerr.ErrInvalidReq.Msg("missing key")
	}
	versions, err := c.SnapshotService.ListVersions(ctx.UserContext(), key, ctx.QueryInt("limit", defaultVersionsLimit))
	if err != nil {
		return err
	}
	return ctx.JSON(versions)
}

// Diff returns a bsdiff patch turning version `from` into version `to`.
func (c *AdminController) Diff(ctx *fiber.Ctx) error {
	key, from, to := ctx.Query("key"), ctx.Query("from"), ctx.Query("to")
	if key == "" || from == "" || to == "" {
		return bgerr.ErrInvalidReq.Msg("key, from and to are required")
	}
	patch, err := c.SnapshotService.GetDiffBetweenVersions(ctx.UserContext(), key, from, to)
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return ctx.Send(patch)
}

func (c *AdminController) InvalidateContent(ctx *fiber.Ctx) error {
	c.ContentPoolService.Invalidate()
	return ctx.SendStatus(fiber.StatusNoContent)
}
