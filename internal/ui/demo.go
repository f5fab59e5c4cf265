package ui

import (
	"fmt"

	"github.com/tkopets/asyncdb/internal/query"
)

// pageSize is the number of rows the "model" query pages through.
const pageSize = 100

// lookupID is the prepared statement of the demo batch.
const lookupID = "6"

// DemoBatch is the set of queries dispatched by the "g" key: five one-time
// aggregates, a prepared lookup of id 10 and one page of items starting at
// offset. The lookup is only prepared when prepare is set; later batches
// rebind and execute the statement already held by the worker.
func DemoBatch(offset int, prepare bool) []query.Command {
	cmds := []query.Command{
		query.Execute{QueryID: "1", SQL: "select avg(id) from item"},
		query.Execute{QueryID: "2", SQL: "select name from item"},
		query.Execute{QueryID: "3", SQL: "select min(id) from item"},
		query.Execute{QueryID: "4", SQL: "select max(id) from item"},
		query.Execute{QueryID: "5", SQL: "select distinct(id) from item"},
	}
	if prepare {
		cmds = append(cmds, query.Prepare{QueryID: lookupID, SQL: "SELECT * FROM item WHERE id = :value"})
	}
	return append(cmds,
		query.BindValue{QueryID: lookupID, Placeholder: ":value", Value: 10},
		query.Execute{QueryID: lookupID},
		query.Execute{QueryID: "model", SQL: fmt.Sprintf("select id, name from item limit %d offset %d", pageSize, offset)},
	)
}
