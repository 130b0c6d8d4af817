package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		rooms := core.NewBaseCollection("rooms")
		rooms.ListRule = nil
		rooms.ViewRule = nil
		rooms.CreateRule = nil
		rooms.UpdateRule = nil
		rooms.DeleteRule = nil

		// slug field - the public room identifier used in URLs and by the
		// live coordinator
		rooms.Fields.Add(&core.TextField{
			Name:     "slug",
			Required: true,
			Max:      64,
		})

		// name field
		rooms.Fields.Add(&core.TextField{
			Name:     "name",
			Required: true,
			Max:      100,
		})

		// owner field - auth record id of the account that may edit the agenda
		rooms.Fields.Add(&core.TextField{
			Name:     "owner",
			Required: false,
			Max:      64,
		})

		rooms.Indexes = []string{
			"CREATE UNIQUE INDEX idx_rooms_slug ON rooms(slug)",
			"CREATE INDEX idx_rooms_owner ON rooms(owner)",
		}

		if err := app.Save(rooms); err != nil {
			return err
		}

		// Create agenda_items collection
		items := core.NewBaseCollection("agenda_items")
		items.ListRule = nil
		items.ViewRule = nil
		items.CreateRule = nil
		items.UpdateRule = nil
		items.DeleteRule = nil

		// room_id relation
		items.Fields.Add(&core.RelationField{
			Name:          "room_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  rooms.Id,
			CascadeDelete: true,
		})

		// item_id field - the id the live protocol references, stable across
		// agenda edits
		items.Fields.Add(&core.TextField{
			Name:     "item_id",
			Required: true,
			Max:      64,
		})

		// name field
		items.Fields.Add(&core.TextField{
			Name:     "name",
			Required: true,
			Max:      100,
		})

		// duration field - nominal item length in seconds
		items.Fields.Add(&core.NumberField{
			Name:     "duration",
			Required: true,
			OnlyInt:  true,
		})

		// position field - agenda sequence, the order auto-advance follows
		items.Fields.Add(&core.NumberField{
			Name:    "position",
			OnlyInt: true,
		})

		// is_pause field - marks break/buffer items for UI treatment
		items.Fields.Add(&core.BoolField{
			Name: "is_pause",
		})

		items.Indexes = []string{
			"CREATE INDEX idx_agenda_items_room ON agenda_items(room_id)",
			"CREATE UNIQUE INDEX idx_agenda_items_room_item ON agenda_items(room_id, item_id)",
		}

		return app.Save(items)
	}, func(app core.App) error {
		if items, err := app.FindCollectionByNameOrId("agenda_items"); err == nil {
			if err := app.Delete(items); err != nil {
				return err
			}
		}
		if rooms, err := app.FindCollectionByNameOrId("rooms"); err == nil {
			return app.Delete(rooms)
		}
		return nil
	})
}
