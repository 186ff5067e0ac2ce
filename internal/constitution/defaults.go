package constitution

// DefaultLockRegistryYAML is the starter lock registry written by
// `pacgate init-registry`.
const DefaultLockRegistryYAML = `# pacgate lock registry
# Constitutional constraints PACs must acknowledge before admission.
# Every active lock needs at least one enforcement mechanism; locks with
# pac_gate enforcement enter the admission computation.
version: "1.0.0"

locks:
  - lock_id: LOCK-GOV-001
    description: Governance pipeline changes require acknowledgment
    type: gate
    scope: [governance]
    severity: CRITICAL
    enforcement:
      - pac_gate: true
      - test_required: internal/admission
    violation_policy:
      action: HARD_FAIL
      telemetry: REQUIRED
    forbidden_zones:
      - internal/registry/defaults

  - lock_id: LOCK-LEDGER-001
    description: Settlement ledger writes are append-only
    type: invariant
    scope: [payments, settlement]
    severity: CRITICAL
    enforcement:
      - pac_gate: true
      - runtime_assert: ledger.AppendOnly
    violation_policy:
      action: HARD_FAIL
      telemetry: REQUIRED

  - lock_id: LOCK-SEC-001
    description: Credential material never leaves the vault boundary
    type: boundary
    scope: ["*"]
    severity: CRITICAL
    enforcement:
      - pac_gate: true
      - lint_rule: no-credential-egress
    violation_policy:
      action: HARD_FAIL
      telemetry: REQUIRED
    forbidden_zones:
      - secrets/
      - vault/

  - lock_id: LOCK-CI-001
    description: Release branches build through the pinned workflow
    type: constraint
    scope: [release]
    severity: HIGH
    enforcement:
      - ci_workflow: .github/workflows/release.yml
    violation_policy:
      action: SOFT_FAIL
      telemetry: OPTIONAL
`
