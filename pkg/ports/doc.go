/*
Package ports defines the driven ports of the questionnaire builder.

# Key Interfaces

  - ScenarioAPI: the backend that stores templates and serves the facility and service catalogs.
  - DraftStore: persists session snapshots between requests or process restarts.
  - DistributedLocker: serializes access to a session across replicas.

RunDraftStoreContract is a shared test suite every DraftStore adapter runs.
*/
package ports
