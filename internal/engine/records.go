package engine

// verifyEditRecords checks the keys of the new record list.
func verifyEditRecords(c *evalCtx, _, out *AccountCell) error {
	if err := VerifyRecordKeys(c.cfg.Records, c.cfg.Account.RecordsMaxSize, out.Record.Records()); err != nil {
		return err
	}
	c.step("record keys verified", "count", len(out.Record.Records()))
	return nil
}
