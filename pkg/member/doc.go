// Package member implements the Data Group Member: election gating,
// membership insertion, snapshot application dispatch, request routing and
// leader forwarding. It is the component the other packages in this module
// exist to serve — the Partitioned Log Manager, the Snapshot Model
// dispatcher, the File Puller, the Pull-Snapshot Scheduler and the Query
// Session Registry are all held here as collaborators rather than
// reimplemented inline.
package member
