/*
Batchgate contract escrows admin-funded pools of a single token and releases
them in fixed per-claim increments to eligible claimants. Eligibility is an
explicit whitelist or ownership of at least one unit of a configured gating
token. Each successful claim pushes the increment to the configured locker
(the Vault contract) and invokes its deposit entry point, so the claimant
ends up owning a fresh time-locked claim token.

An account claims each batch at most once; the claim mark is kept separately
from the whitelist and survives later whitelist edits. A batch disappears
when its remainder hits zero or when the admin cancels it with a refund of
the remainder; batch ids are never reused, so a deleted batch can not be
mistaken for a live one.

CreateBatch, Claim and CancelBatch share one reentrancy flag and fail fast
on nested entry.

# Contract notifications

BatchCreated notification. Produced when an admin escrows a new batch.

	BatchCreated:
	  - name: id
	    type: Integer
	  - name: admin
	    type: Hash160
	  - name: token
	    type: Hash160
	  - name: totalAmount
	    type: Integer
	  - name: tokensPerClaim
	    type: Integer
	  - name: unlockDate
	    type: Integer
	  - name: locker
	    type: Hash160
	  - name: gatingToken
	    type: Hash160

BatchClaimed notification. Produced when a claimant receives an increment.

	BatchClaimed:
	  - name: id
	    type: Integer
	  - name: claimant
	    type: Hash160
	  - name: amount
	    type: Integer

BatchCancelled notification. Produced when the admin cancels a batch and the
remainder is refunded.

	BatchCancelled:
	  - name: id
	    type: Integer
	  - name: admin
	    type: Hash160
	  - name: refund
	    type: Integer
*/
package batchgate
