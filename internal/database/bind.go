// SPDX-License-Identifier: MPL-2.0

package database

import (
	"github.com/dop251/goja"

	"github.com/shellplus/shellplus/internal/namespace"
)

// GlobalName is the global the data layer is bound to.
const GlobalName = "db"

// Bind installs the db global: db.query(sql, ...args) returns an array of
// row objects, db.exec(sql, ...args) returns {rowsAffected, lastInsertId}
// and db.alias names the connection. Failed statements throw.
func (d *DB) Bind(ns *namespace.Namespace) error {
	var obj *goja.Object
	err := ns.Do(func(vm *goja.Runtime) error {
		obj = vm.NewObject()
		if err := obj.Set("alias", d.alias); err != nil {
			return err
		}
		if err := obj.Set("query", func(call goja.FunctionCall) goja.Value {
			query, args := statement(call)
			rows, err := d.Query(ns.Context(), query, args...)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			out := make([]any, len(rows))
			for i, row := range rows {
				out[i] = row
			}
			return vm.NewArray(out...)
		}); err != nil {
			return err
		}
		return obj.Set("exec", func(call goja.FunctionCall) goja.Value {
			query, args := statement(call)
			res, err := d.Exec(ns.Context(), query, args...)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			result := vm.NewObject()
			_ = result.Set("rowsAffected", res.RowsAffected)
			_ = result.Set("lastInsertId", res.LastInsertID)
			return result
		})
	})
	if err != nil {
		return err
	}
	return ns.Set(GlobalName, obj)
}

func statement(call goja.FunctionCall) (string, []any) {
	query := call.Argument(0).String()
	args := make([]any, 0, len(call.Arguments))
	for _, a := range call.Arguments[min(1, len(call.Arguments)):] {
		args = append(args, a.Export())
	}
	return query, args
}
