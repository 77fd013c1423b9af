// Package persister implements the persistence of many-to-many collections
// through their join table.
//
// The Build methods render statements without touching the database. Every
// statement uses "?" placeholders; the dialect/sql driver rebinds them for
// the connected database. The executing methods (Update, Delete, Count,
// Contains, RemoveElement, Matching, ...) take a dialect.ExecQuerier so
// they can run on a driver or inside a transaction:
//
//	p := persister.New(d, persister.WithLogger(logger))
//	tx, err := drv.Tx(ctx)
//	if err != nil {
//		return err
//	}
//	if err := p.Update(ctx, tx, coll, diff); err != nil {
//		return errors.Join(err, tx.Rollback())
//	}
//	return tx.Commit()
package persister
