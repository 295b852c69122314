// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package yukino

// CheckedDriverName is the name of the SQLite driver that records the
// statements prepared by each test.
const CheckedDriverName = "sqlite3_stmtChecked"

// CheckedDSN returns an in-memory database DSN for the test named testName.
// Connections to it are shared, so the database lives as long as one
// connection is open.
func CheckedDSN(testName string) string {
	return "file:" + testName + "?cache=shared&mode=memory&" + testNameTag + "=" + testName
}

// StmtsPrepared returns the number of statements opened and closed by the
// test named testName.
func StmtsPrepared(testName string) (opened, closed int) {
	stmtRegistryMutex.RLock()
	defer stmtRegistryMutex.RUnlock()
	for ptr := range openedStmts[testName] {
		opened++
		if closedStmts[testName][ptr] {
			closed++
		}
	}
	return opened, closed
}

// QueriesRun returns the number of queries the test named testName ran
// directly on a connection and through a prepared statement.
func QueriesRun(testName string) (onDB, onStmt int) {
	queriesRunMutex.RLock()
	defer queriesRunMutex.RUnlock()
	return dbQueriesRun[testName], stmtQueriesRun[testName]
}

// ResetDriverStats forgets the statements and queries recorded so far.
func ResetDriverStats() {
	stmtRegistryMutex.Lock()
	openedStmts = map[string]map[uintptr]string{}
	closedStmts = map[string]map[uintptr]bool{}
	stmtRegistryMutex.Unlock()

	queriesRunMutex.Lock()
	dbQueriesRun = map[string]int{}
	stmtQueriesRun = map[string]int{}
	queriesRunMutex.Unlock()
}
