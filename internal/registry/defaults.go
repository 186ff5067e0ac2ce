package registry

// DefaultRegistryYAML is the starter agent registry written by
// `pacgate init-registry`. It carries the full canonical roster so a new
// deployment starts from a known-good table instead of an empty one.
const DefaultRegistryYAML = `# pacgate agent registry
# Canonical agent identities and color lanes. Every admission check
# resolves claims against this file; edits to immutable fields require
# a registry_version bump.
registry_version: "1.0.0"

schema_metadata:
  field_mutability: "gid, lane and color are always immutable"
  agent_levels:
    L0: "orchestrator"
    L1: "lane engineer"
    L2: "specialist"
    L3: "apprentice"

governance_invariants:
  INV-AGENT-01: "every agent has exactly one color"
  INV-AGENT-02: "every claimed color exists in the color lane table"
  INV-AGENT-03: "reserved-color claimants sit in the reserved GID set"

agents:
  BENSON:
    gid: GID-00
    lane: Orchestration
    color: TEAL
    emoji_primary: "\U0001F7E6\U0001F7E9"
    agent_level: L0
    role: Chief Orchestrator
    diversity_profile: [coordination, synthesis]
    aliases: [BEN]
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  CODY:
    gid: GID-01
    lane: Backend Engineering
    color: BLUE
    emoji_primary: "\U0001F535"
    agent_level: L1
    role: Backend Engineering
    diversity_profile: [services, storage]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  SONNY:
    gid: GID-02
    lane: Frontend Engineering
    color: YELLOW
    emoji_primary: "\U0001F7E1"
    agent_level: L1
    role: Frontend Engineering
    diversity_profile: [interfaces, accessibility]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  MIRA-R:
    gid: GID-03
    lane: Risk & Research
    color: PURPLE
    emoji_primary: "\U0001F7E3"
    agent_level: L2
    role: Risk Research
    diversity_profile: [analysis, adversarial-review]
    aliases: [MIRA]
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  CINDY:
    gid: GID-04
    lane: Orchestration
    color: TEAL
    emoji_primary: "\U0001F537"
    agent_level: L1
    role: Orchestration Support
    diversity_profile: [coordination]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  PAX:
    gid: GID-05
    lane: Payments & Settlement
    color: ORANGE
    emoji_primary: "\U0001F7E0"
    agent_level: L1
    role: Payments Settlement
    diversity_profile: [ledgers, reconciliation]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  SAM:
    gid: GID-06
    lane: Security
    color: DARK RED
    emoji_primary: "\U0001F534"
    agent_level: L2
    role: Security Engineering
    diversity_profile: [threat-modeling, hardening]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  DAN:
    gid: GID-07
    lane: Infrastructure
    color: GREEN
    emoji_primary: "\U0001F7E2"
    agent_level: L1
    role: Infrastructure Gates
    diversity_profile: [pipelines, enforcement]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  ALEX:
    gid: GID-08
    lane: Governance & Audit
    color: WHITE
    emoji_primary: "⚪"
    agent_level: L2
    role: Governance Audit
    diversity_profile: [compliance, review]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]
  LIRA:
    gid: GID-09
    lane: Documentation
    color: PINK
    emoji_primary: "\U0001FA77"
    agent_level: L1
    role: Documentation
    diversity_profile: [writing, curation]
    aliases: []
    mutable_fields: [role, diversity_profile, aliases]
    immutable_fields: [gid, lane, color]

color_lanes:
  TEAL:
    lane: Orchestration
    authorized_gids: [GID-00, GID-04]
    reserved_gids: [GID-00, GID-04]
  BLUE:
    lane: Backend Engineering
    authorized_gids: [GID-01]
  YELLOW:
    lane: Frontend Engineering
    authorized_gids: [GID-02]
  PURPLE:
    lane: Risk & Research
    authorized_gids: [GID-03]
  ORANGE:
    lane: Payments & Settlement
    authorized_gids: [GID-05]
  "DARK RED":
    lane: Security
    authorized_gids: [GID-06]
  GREEN:
    lane: Infrastructure
    authorized_gids: [GID-07]
  WHITE:
    lane: Governance & Audit
    authorized_gids: [GID-08]
  PINK:
    lane: Documentation
    authorized_gids: [GID-09]
`
